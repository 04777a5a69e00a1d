//go:build darwin

package beep

import (
	"sync"

	"github.com/gen2brain/malgo"
)

// speaker keeps one playback device open and feeds it the current cue from
// the device callback.
type speaker struct {
	run    sync.Mutex // serializes device restarts
	mu     sync.Mutex // guards buf
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	buf    []byte
}

var (
	spk     speaker
	spkOnce sync.Once
	spkErr  error
)

func (s *speaker) open() error {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return err
	}
	s.ctx = ctx
	return s.initDevice()
}

func (s *speaker) initDevice() error {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = sampleRate
	dev, err := malgo.InitDevice(s.ctx.Context, cfg, malgo.DeviceCallbacks{Data: s.fill})
	if err != nil {
		return err
	}
	s.device = dev
	return nil
}

func (s *speaker) fill(out, _ []byte, _ uint32) {
	s.mu.Lock()
	n := copy(out, s.buf)
	s.buf = s.buf[n:]
	s.mu.Unlock()
	clear(out[n:])
}

func (s *speaker) play(samples []byte) {
	s.run.Lock()
	defer s.run.Unlock()

	s.mu.Lock()
	s.buf = samples
	s.mu.Unlock()

	s.device.Stop()
	if err := s.device.Start(); err == nil {
		return
	}
	// The device goes stale across sleep and wake; rebuild it once.
	s.device.Uninit()
	if err := s.initDevice(); err != nil {
		return
	}
	s.device.Start()
}

func play(samples []int16) {
	spkOnce.Do(func() { spkErr = spk.open() })
	if spkErr != nil {
		return
	}
	spk.play(toBytes(samples))
}
