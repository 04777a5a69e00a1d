package audio

import (
	"sync"
	"testing"
	"time"
)

func TestIsBluetooth(t *testing.T) {
	for _, tt := range []struct {
		name string
		want bool
	}{
		{"AirPods Pro", true},
		{"Jabra Evolve2 65", true},
		{"Built-in Microphone", false},
		{"alsa_input.pci-0000_00_1f.3.analog-stereo", false},
		{"Headset (BT)", true},
	} {
		if got := IsBluetooth(tt.name); got != tt.want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFindDevice(t *testing.T) {
	ctx := NewFakeContextPCM(nil, false)
	dev, err := FindDevice(ctx, "fake")
	if err != nil || dev == nil || dev.ID != "fake" {
		t.Fatalf("FindDevice(fake) = %v, %v", dev, err)
	}
	dev, err = FindDevice(ctx, "missing")
	if err != nil || dev != nil {
		t.Fatalf("FindDevice(missing) = %v, %v", dev, err)
	}
	if dev, _ := FindDevice(ctx, ""); dev != nil {
		t.Fatal("empty name should select the default device")
	}
}

func TestFakeCaptureDeliversPCMThenSilence(t *testing.T) {
	pcm := make([]byte, fakeFrameSize*fakeBytesPerFrame*3)
	for i := range pcm {
		pcm[i] = 1
	}
	c := NewFakeCapture(pcm, false)

	var mu sync.Mutex
	var got int
	var silent int
	c.SetCallback(func(data []byte, frames uint32) {
		mu.Lock()
		defer mu.Unlock()
		if data[0] == 1 {
			got += len(data)
		} else {
			silent++
		}
	})
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	if got != len(pcm) {
		t.Errorf("delivered %d bytes synchronously, want %d", got, len(pcm))
	}
	mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		s := silent
		mu.Unlock()
		if s > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no silence chunks after PCM ran out")
		}
		time.Sleep(time.Millisecond)
	}

	c.Stop()
	c.Stop() // idempotent
	if c.Starts() != 1 || c.Stops() != 1 {
		t.Errorf("starts=%d stops=%d", c.Starts(), c.Stops())
	}
}
