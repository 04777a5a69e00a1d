package capture

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"mentor/audio"
	"mentor/encoder"
	"mentor/log"
	"mentor/transcriber"
)

// DefaultSpeechRMS is the 16-bit RMS above which a tick counts as voiced.
const DefaultSpeechRMS = 500

type MicConfig struct {
	Device          *audio.DeviceInfo
	Language        string
	SpeechRMS       float64
	TrailingSilence time.Duration
	NoSpeechWait    time.Duration
}

// MicRecognizer records from the microphone until the speaker pauses and
// transcribes the recording. Every cycle opens a fresh capture stream.
type MicRecognizer struct {
	actx audio.Context
	tr   transcriber.Transcriber
	cfg  MicConfig
}

func NewMicRecognizer(actx audio.Context, tr transcriber.Transcriber, cfg MicConfig) *MicRecognizer {
	if cfg.SpeechRMS <= 0 {
		cfg.SpeechRMS = DefaultSpeechRMS
	}
	if cfg.TrailingSilence <= 0 {
		cfg.TrailingSilence = trailingSilence
	}
	if cfg.NoSpeechWait <= 0 {
		cfg.NoSpeechWait = noSpeechWait
	}
	return &MicRecognizer{actx: actx, tr: tr, cfg: cfg}
}

// levelMeter accumulates energy between ticks.
type levelMeter struct {
	mu    sync.Mutex
	pcm   []byte
	sumSq float64
	n     int
}

func (l *levelMeter) add(data []byte) {
	samples := encoder.Samples(data)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pcm = append(l.pcm, data...)
	for _, s := range samples {
		l.sumSq += float64(s) * float64(s)
	}
	l.n += len(samples)
}

// rms returns the level since the previous call.
func (l *levelMeter) rms() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.n == 0 {
		return 0
	}
	r := math.Sqrt(l.sumSq / float64(l.n))
	l.sumSq, l.n = 0, 0
	return r
}

func (l *levelMeter) recorded() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pcm
}

func (m *MicRecognizer) Recognize(ctx context.Context, stop <-chan struct{}) (string, error) {
	dev, err := m.actx.NewCapture(m.cfg.Device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		return "", &Error{Kind: AudioCapture, Err: err}
	}
	defer dev.Close()

	level := &levelMeter{}
	dev.SetCallback(func(data []byte, _ uint32) { level.add(data) })
	if err := dev.Start(); err != nil {
		return "", &Error{Kind: AudioCapture, Err: err}
	}

	ep := newEndpointer(m.cfg.TrailingSilence, m.cfg.NoSpeechWait)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	reason := ""
	for reason == "" {
		select {
		case <-ctx.Done():
			dev.Stop()
			dev.ClearCallback()
			return "", &Error{Kind: Aborted, Err: ctx.Err()}
		case <-stop:
			reason = "stop"
		case <-ticker.C:
			switch ep.Tick(level.rms() >= m.cfg.SpeechRMS) {
			case EndSilence:
				reason = EndSilence.String()
			case EndNoSpeech:
				reason = EndNoSpeech.String()
			}
		}
	}
	dev.Stop()
	dev.ClearCallback()

	pcm := level.recorded()
	stats := log.CaptureStats{
		AudioS:      encoder.Duration(uint64(len(pcm) / 2)).Seconds(),
		SpeechTicks: ep.speechTicks,
		TotalTicks:  ep.ticks,
		Reason:      reason,
	}

	if !ep.Heard() {
		log.CaptureCycle(stats)
		if reason == "stop" {
			return "", nil
		}
		return "", &Error{Kind: NoSpeech}
	}

	text, err := m.transcribe(ctx, pcm, &stats)
	log.CaptureCycle(stats)
	return text, err
}

func (m *MicRecognizer) transcribe(ctx context.Context, pcm []byte, stats *log.CaptureStats) (string, error) {
	start := time.Now()
	sess, err := m.tr.NewSession(ctx, transcriber.SessionConfig{Language: m.cfg.Language})
	if err != nil {
		return "", &Error{Kind: Network, Err: err}
	}
	sess.Feed(pcm)
	res, err := sess.Close()
	stats.TranscribeMs = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", &Error{Kind: Aborted, Err: err}
		}
		return "", &Error{Kind: Network, Err: fmt.Errorf("%s: %w", m.tr.Name(), err)}
	}
	for _, line := range res.Metrics {
		log.Info(line)
	}
	if !res.HasText {
		return "", &Error{Kind: NoSpeech}
	}
	return res.Text, nil
}
