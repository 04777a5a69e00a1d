package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"mentor/backend"
	"mentor/beep"
	"mentor/session"
)

// actions is what the display layers drive; both the Bubble Tea TUI and
// the stdin driver dispatch to it.
type actions interface {
	Start()
	Stop()
	Restart()
	ViewHistory()
	ViewSession(id backend.ID)
	Resume(id backend.ID)
}

// cueSink plays a tone when listening begins, ends or fails. Publish is
// only called from the controller loop.
type cueSink struct {
	last session.State
	play func(beep.Cue)
}

func newCueSink() *cueSink {
	return &cueSink{last: session.Idle, play: beep.Play}
}

func (c *cueSink) Publish(s session.Snapshot) {
	prev := c.last
	if s.State == prev {
		return
	}
	c.last = s.State
	switch {
	case s.State == session.Listening:
		c.play(beep.Listen)
	case s.State == session.Error:
		c.play(beep.Fail)
	case prev == session.Listening && s.Status == session.StatusNoSpeech:
		c.play(beep.Fail)
	case prev == session.Listening:
		c.play(beep.Done)
	}
}

// consoleSink prints state changes and new transcript entries as lines.
type consoleSink struct {
	w       io.Writer
	state   session.State
	status  string
	printed []session.Entry
}

func newConsoleSink(w io.Writer) *consoleSink {
	return &consoleSink{w: w, state: -1}
}

func (c *consoleSink) Publish(s session.Snapshot) {
	if s.State != c.state || s.Status != c.status {
		c.state, c.status = s.State, s.Status
		fmt.Fprintf(c.w, "[%s] %s\n", s.State, s.Status)
	}
	if !extends(s.Transcript, c.printed) {
		c.printed = nil
		fmt.Fprintln(c.w, "---")
	}
	for _, e := range s.Transcript[len(c.printed):] {
		fmt.Fprintln(c.w, e.String())
	}
	c.printed = s.Transcript
}

// extends reports whether entries starts with prefix.
func extends(entries, prefix []session.Entry) bool {
	if len(prefix) > len(entries) {
		return false
	}
	for i := range prefix {
		if entries[i] != prefix[i] {
			return false
		}
	}
	return true
}

// watcher keeps the newest snapshot and a publish count so a driver can wait
// for the controller to settle after an action.
type watcher struct {
	mu   sync.Mutex
	n    int
	last session.Snapshot
	ch   chan struct{} // closed on the next publish
}

func newWatcher() *watcher {
	return &watcher{ch: make(chan struct{})}
}

func (w *watcher) Publish(s session.Snapshot) {
	w.mu.Lock()
	w.n++
	w.last = s
	close(w.ch)
	w.ch = make(chan struct{})
	w.mu.Unlock()
}

func (w *watcher) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

func (w *watcher) latest() session.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// await blocks until a snapshot published after the first `after` ones
// satisfies ok, or the timeout passes.
func (w *watcher) await(after int, ok func(session.Snapshot) bool, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		w.mu.Lock()
		n, s, ch := w.n, w.last, w.ch
		w.mu.Unlock()
		if n > after && ok(s) {
			return true
		}
		select {
		case <-ch:
		case <-deadline.C:
			return false
		}
	}
}

// settled is true once nothing is listening or waiting on the service.
func settled(s session.Snapshot) bool {
	return !s.Pending && s.State != session.Listening && s.State != session.Submitting
}
