package meter

import (
	"errors"
	"sync"

	"mentor/audio"
	"mentor/encoder"
)

// ReadEvery is how many input samples pass between readings.
const ReadEvery = 2048

var (
	ErrStarted = errors.New("meter already started")
	ErrClosed  = errors.New("meter closed")
)

// Meter owns a capture stream for its whole life and publishes the latest
// level on Readings. Older readings are dropped when nobody is reading.
type Meter struct {
	dev audio.CaptureDevice
	an  *Analyser

	mu      sync.Mutex
	started bool
	closed  bool
	pending int
	bins    []byte
	out     chan float64
}

func New(dev audio.CaptureDevice) *Meter {
	return &Meter{
		dev:  dev,
		an:   NewAnalyser(),
		bins: make([]byte, BinCount),
		out:  make(chan float64, 1),
	}
}

// Open creates a meter on its own stream from actx.
func Open(actx audio.Context, device *audio.DeviceInfo) (*Meter, error) {
	dev, err := actx.NewCapture(device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		return nil, err
	}
	return New(dev), nil
}

// Start begins sampling. A meter runs once; Start after Start or Close
// fails.
func (m *Meter) Start() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return ErrStarted
	}
	m.started = true
	m.mu.Unlock()

	m.dev.SetCallback(m.process)
	if err := m.dev.Start(); err != nil {
		m.dev.ClearCallback()
		return err
	}
	return nil
}

// Readings yields levels in [0, 100] until Close.
func (m *Meter) Readings() <-chan float64 { return m.out }

func (m *Meter) process(data []byte, _ uint32) {
	samples := encoder.Samples(data)
	buf := make([]float64, len(samples))
	for i, s := range samples {
		buf[i] = float64(s) / 32768
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	for len(buf) > 0 {
		n := min(len(buf), ReadEvery-m.pending)
		m.an.Write(buf[:n])
		buf = buf[n:]
		m.pending += n
		if m.pending == ReadEvery {
			m.pending = 0
			m.publish(Volume(m.an.ByteFrequencyData(m.bins)))
		}
	}
}

func (m *Meter) publish(v float64) {
	select {
	case m.out <- v:
		return
	default:
	}
	select {
	case <-m.out:
	default:
	}
	select {
	case m.out <- v:
	default:
	}
}

func (m *Meter) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.out)
	m.mu.Unlock()

	m.dev.ClearCallback()
	m.dev.Close()
}
