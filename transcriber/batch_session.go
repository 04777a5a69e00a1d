package transcriber

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"mentor/encoder"
)

// noSpeechCutoff flags whisper output whose every segment is likely a
// hallucination over silence.
const noSpeechCutoff = 0.8

type transcribeFunc func(ctx context.Context, audio []byte, format string) (*Result, error)

type batchSession struct {
	ctx        context.Context
	transcribe transcribeFunc
	encoder    encoder.Encoder
	blockChan  chan []int16
	encodeDone chan struct{}

	// mu also serializes sends so Close never closes blockChan under a Feed.
	mu        sync.Mutex
	sampleBuf []int16
	closed    bool

	errMu     sync.Mutex
	encodeErr error
}

func newBatchSession(ctx context.Context, transcribe transcribeFunc) (*batchSession, error) {
	enc, err := encoder.NewFlac()
	if err != nil {
		return nil, err
	}

	bs := &batchSession{
		ctx:        ctx,
		transcribe: transcribe,
		encoder:    enc,
		blockChan:  make(chan []int16, 64),
		encodeDone: make(chan struct{}),
	}

	go func() {
		defer close(bs.encodeDone)
		for block := range bs.blockChan {
			if err := bs.encoder.EncodeBlock(block); err != nil {
				bs.errMu.Lock()
				if bs.encodeErr == nil {
					bs.encodeErr = err
				}
				bs.errMu.Unlock()
			}
		}
	}()

	return bs, nil
}

func (bs *batchSession) Feed(pcm []byte) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if bs.closed {
		return
	}
	bs.sampleBuf = append(bs.sampleBuf, encoder.Samples(pcm)...)
	for len(bs.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, bs.sampleBuf[:encoder.BlockSize])
		bs.sampleBuf = bs.sampleBuf[encoder.BlockSize:]
		bs.blockChan <- block
	}
}

func (bs *batchSession) Close() (SessionResult, error) {
	bs.mu.Lock()
	if bs.closed {
		bs.mu.Unlock()
		return SessionResult{}, fmt.Errorf("session already closed")
	}
	bs.closed = true
	if len(bs.sampleBuf) > 0 {
		bs.blockChan <- bs.sampleBuf
		bs.sampleBuf = nil
	}
	close(bs.blockChan)
	bs.mu.Unlock()
	<-bs.encodeDone

	if bs.encodeErr != nil {
		return SessionResult{}, bs.encodeErr
	}
	if err := bs.encoder.Close(); err != nil {
		return SessionResult{}, err
	}

	enc := bs.encoder
	if enc.TotalFrames() == 0 {
		return SessionResult{NoSpeech: true}, nil
	}

	audioData := enc.Bytes()
	result, err := bs.transcribe(bs.ctx, audioData, "flac")
	if err != nil {
		return SessionResult{}, err
	}

	text := strings.TrimSpace(result.Text)
	noSpeech := text == "" || result.NoSpeechProb >= noSpeechCutoff

	rawSize := enc.TotalFrames() * 2
	audioDuration := encoder.Duration(enc.TotalFrames()).Seconds()
	stats := &BatchStats{
		AudioLengthS:     audioDuration,
		RawSizeKB:        float64(rawSize) / 1024,
		CompressedSizeKB: float64(len(audioData)) / 1024,
		EncodeTimeMs:     float64(enc.EncodeTime().Milliseconds()),
	}
	if m := result.Metrics; m != nil {
		stats.TTFBMs = float64(m.TTFB.Milliseconds())
		stats.TotalTimeMs = float64(m.Sum().Milliseconds())
		stats.ConnReused = m.ConnReused
	}

	return SessionResult{
		Text:      text,
		HasText:   !noSpeech,
		NoSpeech:  noSpeech,
		RateLimit: result.RateLimit,
		Batch:     stats,
		Metrics:   formatMetrics(stats, result),
	}, nil
}

func formatMetrics(s *BatchStats, result *Result) []string {
	reused := ""
	if s.ConnReused {
		reused = " (reused)"
	}
	lines := []string{
		fmt.Sprintf("audio:      %.1fs | %.1f KB → %.1f KB flac", s.AudioLengthS, s.RawSizeKB, s.CompressedSizeKB),
		fmt.Sprintf("encode:     %.0fms (concurrent)", s.EncodeTimeMs),
		fmt.Sprintf("ttfb:       %.0fms%s", s.TTFBMs, reused),
		fmt.Sprintf("total:      %.0fms", s.TotalTimeMs),
	}
	if result.Duration > 0 {
		lines = append(lines, fmt.Sprintf("api_dur:    %.2fs", result.Duration))
	}
	if result.NoSpeechProb > 0 {
		lines = append(lines, fmt.Sprintf("no_speech:  %.2f", result.NoSpeechProb))
	}
	return lines
}
