package narration

import (
	"context"
	"sync"
)

// Fake records what it was asked to say. With hold set each utterance
// lasts until cancelled.
type Fake struct {
	hold bool

	mu        sync.Mutex
	spoken    []string
	cancelled int
	playing   int
	overlap   bool
}

func NewFake(hold bool) *Fake {
	return &Fake{hold: hold}
}

func (f *Fake) Speak(ctx context.Context, text string) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.playing++
	if f.playing > 1 {
		f.overlap = true
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.playing--
		f.mu.Unlock()
	}()

	if !f.hold {
		return nil
	}
	<-ctx.Done()
	f.mu.Lock()
	f.cancelled++
	f.mu.Unlock()
	return ctx.Err()
}

func (f *Fake) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

func (f *Fake) Last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.spoken) == 0 {
		return ""
	}
	return f.spoken[len(f.spoken)-1]
}

func (f *Fake) Cancelled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func (f *Fake) Playing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing > 0
}

// Overlapped reports whether two utterances ever played at once.
func (f *Fake) Overlapped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlap
}
