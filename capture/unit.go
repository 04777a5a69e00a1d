// Package capture runs one speech recognition cycle at a time and reports
// its lifecycle to a single handler.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type ErrorKind string

const (
	NoSpeech             ErrorKind = "no-speech"
	Aborted              ErrorKind = "aborted"
	AudioCapture         ErrorKind = "audio-capture"
	Network              ErrorKind = "network"
	NotAllowed           ErrorKind = "not-allowed"
	LanguageNotSupported ErrorKind = "language-not-supported"
)

// Error is a recognition failure tagged with its kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies err. Untagged errors count as network failures, a
// cancelled context as aborted.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Aborted
	}
	return Network
}

var ErrActive = errors.New("capture already active")

// Recognizer records and transcribes one utterance. Closing stop asks it
// to finish early with whatever it has; an empty text with a nil error
// means nothing was recognized.
type Recognizer interface {
	Recognize(ctx context.Context, stop <-chan struct{}) (string, error)
}

// Handler receives lifecycle signals. They arrive from the capture
// goroutine in order: started, then at most one of result or error, then
// ended.
type Handler interface {
	CaptureStarted()
	CaptureResult(text string)
	CaptureError(kind ErrorKind, err error)
	CaptureEnded()
}

type Unit struct {
	rec Recognizer

	mu      sync.Mutex
	handler Handler
	active  bool
	stop    chan struct{}
	stopped bool
}

func NewUnit(rec Recognizer) *Unit {
	return &Unit{rec: rec}
}

func (u *Unit) SetHandler(h Handler) {
	u.mu.Lock()
	u.handler = h
	u.mu.Unlock()
}

func (u *Unit) Active() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.active
}

// Start begins one listening cycle. It fails with ErrActive while a
// previous cycle has not ended.
func (u *Unit) Start(ctx context.Context) error {
	u.mu.Lock()
	if u.active {
		u.mu.Unlock()
		return ErrActive
	}
	u.active = true
	u.stopped = false
	stop := make(chan struct{})
	u.stop = stop
	h := u.handler
	u.mu.Unlock()

	go u.run(ctx, h, stop)
	return nil
}

func (u *Unit) run(ctx context.Context, h Handler, stop chan struct{}) {
	if h != nil {
		h.CaptureStarted()
	}
	text, err := u.rec.Recognize(ctx, stop)

	u.mu.Lock()
	u.active = false
	u.stop = nil
	u.mu.Unlock()

	if h == nil {
		return
	}
	switch {
	case err != nil:
		h.CaptureError(KindOf(err), err)
	case text != "":
		h.CaptureResult(text)
	}
	h.CaptureEnded()
}

// Stop asks the active cycle to finish. No-op when inactive.
func (u *Unit) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.active || u.stopped {
		return
	}
	u.stopped = true
	close(u.stop)
}
