package audio

import (
	"os"
	"sync"
	"time"

	"mentor/encoder"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext replays one PCM buffer to every capture it opens.
type FakeContext struct {
	pcm      []byte
	realtime bool
}

// NewFakeContext loads a 16 kHz mono WAV file.
func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return &FakeContext{pcm: data, realtime: realtime}, nil
}

func NewFakeContextPCM(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return NewFakeCapture(f.pcm, f.realtime), nil
}

// FakeCapture feeds its PCM in 1024-frame chunks, then silence until
// stopped. Without realtime pacing the PCM is delivered synchronously
// inside Start.
type FakeCapture struct {
	pcm      []byte
	realtime bool

	mu      sync.Mutex
	cb      DataCallback
	stopCh  chan struct{}
	loopEnd chan struct{}
	starts  int
	stops   int
}

func NewFakeCapture(pcm []byte, realtime bool) *FakeCapture {
	return &FakeCapture{pcm: pcm, realtime: realtime}
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

// Starts and Stops count lifecycle calls for tests.
func (f *FakeCapture) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *FakeCapture) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func (f *FakeCapture) emit(chunk []byte) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
	}
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	f.starts++
	stopCh := make(chan struct{})
	loopEnd := make(chan struct{})
	f.stopCh, f.loopEnd = stopCh, loopEnd
	f.mu.Unlock()

	chunkBytes := fakeFrameSize * fakeBytesPerFrame
	interval := time.Duration(fakeFrameSize) * time.Second / time.Duration(encoder.SampleRate)
	if !f.realtime {
		for pos := 0; pos < len(f.pcm); pos += chunkBytes {
			f.emit(f.pcm[pos:min(pos+chunkBytes, len(f.pcm))])
		}
		interval = time.Millisecond
	}

	go func() {
		defer close(loopEnd)
		pos := len(f.pcm)
		if f.realtime {
			pos = 0
		}
		silence := make([]byte, chunkBytes)
		for {
			select {
			case <-stopCh:
				return
			case <-time.After(interval):
			}
			if pos < len(f.pcm) {
				end := min(pos+chunkBytes, len(f.pcm))
				f.emit(f.pcm[pos:end])
				pos = end
				continue
			}
			f.emit(silence)
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stopCh, loopEnd := f.stopCh, f.loopEnd
	f.stopCh, f.loopEnd = nil, nil
	if stopCh != nil {
		f.stops++
	}
	f.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	<-loopEnd
}

func (f *FakeCapture) Close() { f.Stop() }
