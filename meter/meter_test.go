package meter

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"mentor/audio"
	"mentor/encoder"
)

func sine(n int, amp, freq float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/encoder.SampleRate)
	}
	return out
}

func pcm(samples []float64) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(int16(s*32767)))
	}
	return b
}

func TestVolume(t *testing.T) {
	full := make([]byte, BinCount)
	for i := range full {
		full[i] = 255
	}
	tests := []struct {
		name string
		bins []byte
		want float64
	}{
		{"empty", nil, 0},
		{"silent", make([]byte, BinCount), 0},
		{"full", full, 255.0 / 256 * 100},
		{"half", []byte{128, 128}, 50},
	}
	for _, tt := range tests {
		if got := Volume(tt.bins); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Volume = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAnalyserSilenceIsZero(t *testing.T) {
	a := NewAnalyser()
	a.Write(make([]float64, FFTSize))
	bins := a.ByteFrequencyData(nil)
	if len(bins) != BinCount {
		t.Fatalf("len = %d, want %d", len(bins), BinCount)
	}
	if v := Volume(bins); v != 0 {
		t.Errorf("silence volume = %v", v)
	}
}

func TestAnalyserToneRaisesLevelWithSmoothing(t *testing.T) {
	a := NewAnalyser()
	a.Write(sine(FFTSize, 0.8, 1000))
	first := Volume(a.ByteFrequencyData(nil))
	if first <= 0 {
		t.Fatalf("tone volume = %v, want > 0", first)
	}
	var later float64
	for i := 0; i < 20; i++ {
		a.Write(sine(FFTSize, 0.8, 1000))
		later = Volume(a.ByteFrequencyData(nil))
	}
	if later < first {
		t.Errorf("smoothed level fell from %v to %v under a steady tone", first, later)
	}
	if later > 100 {
		t.Errorf("volume %v above 100", later)
	}
}

func TestAnalyserPeakBin(t *testing.T) {
	a := NewAnalyser()
	// 1000 Hz at 16 kHz / 1024 lands on bin 64.
	for i := 0; i < 20; i++ {
		a.Write(sine(FFTSize, 0.8, 1000))
		a.ByteFrequencyData(nil)
	}
	bins := a.ByteFrequencyData(nil)
	peak := 0
	for k := range bins {
		if bins[k] > bins[peak] {
			peak = k
		}
	}
	if peak < 63 || peak > 65 {
		t.Errorf("peak bin = %d, want ~64", peak)
	}
}

func TestMeterPublishesLatestReading(t *testing.T) {
	dev := audio.NewFakeCapture(pcm(sine(ReadEvery*4, 0.8, 1000)), false)
	m := New(dev)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	select {
	case v := <-m.Readings():
		if v <= 0 || v > 100 {
			t.Errorf("reading = %v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("no reading")
	}
}

func TestMeterNotRestartable(t *testing.T) {
	m := New(audio.NewFakeCapture(nil, false))
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); !errors.Is(err, ErrStarted) {
		t.Errorf("second Start = %v, want ErrStarted", err)
	}
	m.Close()
	m.Close()
	if err := m.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close = %v, want ErrClosed", err)
	}
	if _, ok := <-m.Readings(); ok {
		// a reading may be buffered; the channel must still close behind it
		if _, ok := <-m.Readings(); ok {
			t.Error("readings channel still open after Close")
		}
	}
}

func TestOpenUsesContext(t *testing.T) {
	m, err := Open(audio.NewFakeContextPCM(nil, false), nil)
	if err != nil {
		t.Fatal(err)
	}
	m.Close()
}
