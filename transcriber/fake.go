package transcriber

import (
	"context"
	"fmt"
	"sync"
)

// FakeTranscriber returns a fixed text (or error) for every session.
type FakeTranscriber struct {
	text string
	err  error
	lang string

	mu  sync.Mutex
	fed int
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{text: text, err: err}
}

func (f *FakeTranscriber) Name() string           { return "fake" }
func (f *FakeTranscriber) SetLanguage(lang string) { f.lang = lang }
func (f *FakeTranscriber) GetLanguage() string     { return f.lang }

// FedBytes reports how much PCM all sessions received.
func (f *FakeTranscriber) FedBytes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fed
}

func (f *FakeTranscriber) NewSession(ctx context.Context, _ SessionConfig) (Session, error) {
	return &fakeSession{ctx: ctx, owner: f}, nil
}

type fakeSession struct {
	ctx   context.Context
	owner *FakeTranscriber
}

func (s *fakeSession) Feed(pcm []byte) {
	s.owner.mu.Lock()
	s.owner.fed += len(pcm)
	s.owner.mu.Unlock()
}

func (s *fakeSession) Close() (SessionResult, error) {
	if err := s.ctx.Err(); err != nil {
		return SessionResult{}, err
	}
	if s.owner.err != nil {
		return SessionResult{}, fmt.Errorf("fake transcriber error: %w", s.owner.err)
	}
	return SessionResult{
		Text:     s.owner.text,
		HasText:  s.owner.text != "",
		NoSpeech: s.owner.text == "",
		Batch:    &BatchStats{AudioLengthS: 1.0, TotalTimeMs: 10},
		Metrics:  []string{"total: 10ms (fake)"},
	}, nil
}
