// Package beep plays short cues when listening starts, ends or fails.
package beep

import (
	"math"
	"sync"
)

const sampleRate = 44100

type Cue int

const (
	Listen Cue = iota
	Done
	Fail
)

// tone describes one cue: a decaying sine, repeated after a short gap.
type tone struct {
	freq, dur, volume, decay float64
	repeat                   int
}

var tones = map[Cue]tone{
	Listen: {freq: 1200, dur: 0.06, volume: 0.5, decay: 60},
	Done:   {freq: 900, dur: 0.08, volume: 0.5, decay: 40},
	Fail:   {freq: 350, dur: 0.08, volume: 0.6, decay: 30, repeat: 1},
}

const repeatGap = 0.05

var (
	disabled bool
	cueOnce  sync.Once
	rendered map[Cue][]int16
)

func Disable() { disabled = true }

// Play sounds a cue without blocking.
func Play(c Cue) {
	if disabled {
		return
	}
	cueOnce.Do(func() {
		rendered = make(map[Cue][]int16, len(tones))
		for cue, t := range tones {
			rendered[cue] = t.samples()
		}
	})
	if s := rendered[c]; len(s) > 0 {
		go play(s)
	}
}

func (t tone) samples() []int16 {
	one := tick(t.freq, t.dur, t.volume, t.decay)
	out := append([]int16(nil), one...)
	gap := make([]int16, int(sampleRate*repeatGap))
	for range t.repeat {
		out = append(out, gap...)
		out = append(out, one...)
	}
	return out
}

// tick is a decaying mono sine.
func tick(freq, duration, volume, decay float64) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func toBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}
