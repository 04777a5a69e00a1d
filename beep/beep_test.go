package beep

import (
	"encoding/binary"
	"testing"
)

func TestTickLengthAndDecay(t *testing.T) {
	s := tick(1000, 0.1, 0.5, 40)
	if len(s) != sampleRate/10 {
		t.Fatalf("len = %d, want %d", len(s), sampleRate/10)
	}
	peak := func(xs []int16) int16 {
		var m int16
		for _, x := range xs {
			if x > m {
				m = x
			}
		}
		return m
	}
	head, tail := peak(s[:len(s)/4]), peak(s[len(s)*3/4:])
	if head <= tail {
		t.Errorf("envelope not decaying: head %d tail %d", head, tail)
	}
	if head > int16(32767/2)+1 {
		t.Errorf("peak %d above volume", head)
	}
}

func TestFailRepeatsWithGap(t *testing.T) {
	tn := tones[Fail]
	one := tick(tn.freq, tn.dur, tn.volume, tn.decay)
	s := tn.samples()
	gap := int(sampleRate * repeatGap)
	if len(s) != 2*len(one)+gap {
		t.Fatalf("len = %d", len(s))
	}
	for _, x := range s[len(one) : len(one)+gap] {
		if x != 0 {
			t.Fatal("gap not silent")
		}
	}
}

func TestSingleCues(t *testing.T) {
	for _, c := range []Cue{Listen, Done} {
		tn := tones[c]
		if got, want := len(tn.samples()), int(sampleRate*tn.dur); got != want {
			t.Errorf("cue %d: len = %d, want %d", c, got, want)
		}
	}
}

func TestDisabledPlayIsNoop(t *testing.T) {
	Disable()
	Play(Listen)
	if rendered != nil {
		t.Error("disabled Play rendered cues")
	}
}

func TestToBytesLittleEndian(t *testing.T) {
	b := toBytes([]int16{1, -2, 0x1234})
	for i, want := range []int16{1, -2, 0x1234} {
		if got := int16(binary.LittleEndian.Uint16(b[i*2:])); got != want {
			t.Errorf("sample %d = %d, want %d", i, got, want)
		}
	}
}
