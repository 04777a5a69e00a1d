// Package narration speaks text through the host voice, one utterance at a time.
package narration

import (
	"context"
	"sync"

	"mentor/log"
)

// Synthesizer speaks text and returns when done or when ctx is cancelled.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Unit serializes utterances. A new Speak interrupts the current one.
type Unit struct {
	synth Synthesizer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewUnit(s Synthesizer) *Unit {
	return &Unit{synth: s}
}

// Speak cancels whatever is playing and starts text in the background.
func (u *Unit) Speak(text string) {
	if text == "" {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	prev := u.cancelLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	u.cancel, u.done = cancel, done
	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		if ctx.Err() != nil {
			return
		}
		if err := u.synth.Speak(ctx, text); err != nil && ctx.Err() == nil {
			log.Warnf("narration failed: %v", err)
		}
	}()
}

// CancelAll stops the current utterance.
func (u *Unit) CancelAll() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.cancelLocked()
}

func (u *Unit) cancelLocked() chan struct{} {
	if u.cancel == nil {
		return nil
	}
	u.cancel()
	done := u.done
	u.cancel, u.done = nil, nil
	return done
}

// Wait blocks until the current utterance finishes.
func (u *Unit) Wait() {
	u.mu.Lock()
	done := u.done
	u.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Silent is a synthesizer that says nothing.
type Silent struct{}

func (Silent) Speak(context.Context, string) error { return nil }
