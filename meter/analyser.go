// Package meter turns microphone PCM into a 0-100 input level.
package meter

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	FFTSize   = 1024
	BinCount  = FFTSize / 2
	Smoothing = 0.8
	MinDB     = -100.0
	MaxDB     = -30.0
)

// Analyser keeps the last FFTSize samples and reports smoothed byte-scaled
// magnitudes per frequency bin.
type Analyser struct {
	fft      *fourier.FFT
	win      []float64
	ring     []float64
	pos      int
	frame    []float64
	coeffs   []complex128
	smoothed []float64
}

func NewAnalyser() *Analyser {
	win := make([]float64, FFTSize)
	for i := range win {
		win[i] = 1
	}
	return &Analyser{
		fft:      fourier.NewFFT(FFTSize),
		win:      window.Blackman(win),
		ring:     make([]float64, FFTSize),
		frame:    make([]float64, FFTSize),
		coeffs:   make([]complex128, FFTSize/2+1),
		smoothed: make([]float64, BinCount),
	}
}

// Write appends samples in [-1, 1].
func (a *Analyser) Write(samples []float64) {
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % FFTSize
	}
}

// ByteFrequencyData analyses the current window and fills dst with one
// byte per bin, mapping [MinDB, MaxDB] onto [0, 255].
func (a *Analyser) ByteFrequencyData(dst []byte) []byte {
	if cap(dst) < BinCount {
		dst = make([]byte, BinCount)
	}
	dst = dst[:BinCount]

	for i := range a.frame {
		a.frame[i] = a.ring[(a.pos+i)%FFTSize] * a.win[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)

	scale := 255 / (MaxDB - MinDB)
	for k := 0; k < BinCount; k++ {
		mag := math.Hypot(real(a.coeffs[k]), imag(a.coeffs[k])) / FFTSize
		a.smoothed[k] = Smoothing*a.smoothed[k] + (1-Smoothing)*mag

		db := 20 * math.Log10(a.smoothed[k])
		v := (db - MinDB) * scale
		switch {
		case math.IsNaN(v) || v < 0:
			dst[k] = 0
		case v > 255:
			dst[k] = 255
		default:
			dst[k] = byte(v)
		}
	}
	return dst
}

// Volume averages the bins into a percentage.
func Volume(bins []byte) float64 {
	if len(bins) == 0 {
		return 0
	}
	sum := 0
	for _, b := range bins {
		sum += int(b)
	}
	avg := float64(sum) / float64(len(bins))
	return math.Min(100, avg/256*100)
}
