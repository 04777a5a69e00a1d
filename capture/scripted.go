package capture

import (
	"context"
	"sync"
)

// Step is one scripted recognition outcome.
type Step struct {
	Text string
	Err  error
	Hold bool // wait for stop or cancel before returning
}

func Say(text string) Step { return Step{Text: text} }

func Silence() Step { return Step{Err: &Error{Kind: NoSpeech}} }

func Fail(kind ErrorKind) Step { return Step{Err: &Error{Kind: kind}} }

// Hang never finishes on its own.
func Hang() Step { return Step{Hold: true} }

// ScriptedRecognizer plays queued steps, one per cycle. With nothing
// queued a cycle waits until stopped.
type ScriptedRecognizer struct {
	mu     sync.Mutex
	steps  []Step
	cycles int
	ready  chan struct{}
}

func NewScripted(steps ...Step) *ScriptedRecognizer {
	return &ScriptedRecognizer{steps: steps, ready: make(chan struct{}, 1)}
}

// Push queues a step and wakes a cycle waiting for one.
func (s *ScriptedRecognizer) Push(step Step) {
	s.mu.Lock()
	s.steps = append(s.steps, step)
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *ScriptedRecognizer) Cycles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}

func (s *ScriptedRecognizer) next() (Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return Step{}, false
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step, true
}

func (s *ScriptedRecognizer) Recognize(ctx context.Context, stop <-chan struct{}) (string, error) {
	s.mu.Lock()
	s.cycles++
	s.mu.Unlock()

	for {
		step, ok := s.next()
		if ok && !step.Hold {
			return step.Text, step.Err
		}
		var ready <-chan struct{}
		if !ok {
			ready = s.ready
		}
		select {
		case <-ctx.Done():
			return "", &Error{Kind: Aborted, Err: ctx.Err()}
		case <-stop:
			return "", nil
		case <-ready:
		}
	}
}
