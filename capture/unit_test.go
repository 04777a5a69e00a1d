package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []string
	ended  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ended: make(chan struct{}, 8)}
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) CaptureStarted()           { r.add("started") }
func (r *recorder) CaptureResult(text string) { r.add("result:" + text) }
func (r *recorder) CaptureError(kind ErrorKind, _ error) {
	r.add("error:" + string(kind))
}
func (r *recorder) CaptureEnded() {
	r.add("ended")
	r.ended <- struct{}{}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ended:
	case <-time.After(2 * time.Second):
		t.Fatal("capture never ended")
	}
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.events, ",")
}

func TestUnitSignalOrder(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want string
	}{
		{"utterance", Say("hello"), "started,result:hello,ended"},
		{"no speech", Silence(), "started,error:no-speech,ended"},
		{"not allowed", Fail(NotAllowed), "started,error:not-allowed,ended"},
		{"untagged error", Step{Err: errors.New("dial tcp")}, "started,error:network,ended"},
		{"empty text", Say(""), "started,ended"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUnit(NewScripted(tt.step))
			r := newRecorder()
			u.SetHandler(r)
			if err := u.Start(context.Background()); err != nil {
				t.Fatal(err)
			}
			r.wait(t)
			if got := r.String(); got != tt.want {
				t.Errorf("events = %q, want %q", got, tt.want)
			}
			if u.Active() {
				t.Error("unit still active after ended")
			}
		})
	}
}

func TestUnitDoubleStart(t *testing.T) {
	rec := NewScripted(Hang())
	u := NewUnit(rec)
	r := newRecorder()
	u.SetHandler(r)

	if err := u.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := u.Start(context.Background()); !errors.Is(err, ErrActive) {
		t.Fatalf("second Start = %v, want ErrActive", err)
	}
	u.Stop()
	r.wait(t)
	if rec.Cycles() != 1 {
		t.Errorf("cycles = %d, want 1", rec.Cycles())
	}
	if got := r.String(); got != "started,ended" {
		t.Errorf("events = %q", got)
	}
}

func TestUnitStopWhenInactive(t *testing.T) {
	u := NewUnit(NewScripted())
	u.Stop()
	u.Stop()
	if u.Active() {
		t.Fatal("inactive unit became active")
	}
}

func TestUnitRestartAfterEnd(t *testing.T) {
	rec := NewScripted(Silence(), Say("second"))
	u := NewUnit(rec)
	r := newRecorder()
	u.SetHandler(r)

	for i := 0; i < 2; i++ {
		if err := u.Start(context.Background()); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		r.wait(t)
	}
	want := "started,error:no-speech,ended,started,result:second,ended"
	if got := r.String(); got != want {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestUnitContextCancel(t *testing.T) {
	u := NewUnit(NewScripted(Hang()))
	r := newRecorder()
	u.SetHandler(r)
	ctx, cancel := context.WithCancel(context.Background())
	if err := u.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	r.wait(t)
	if got := r.String(); got != "started,error:aborted,ended" {
		t.Errorf("events = %q", got)
	}
}

func TestScriptedPushWakesWaitingCycle(t *testing.T) {
	rec := NewScripted()
	u := NewUnit(rec)
	r := newRecorder()
	u.SetHandler(r)
	if err := u.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec.Push(Say("late"))
	r.wait(t)
	if got := r.String(); got != "started,result:late,ended" {
		t.Errorf("events = %q", got)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{&Error{Kind: NoSpeech}, NoSpeech},
		{fmt.Errorf("wrapped: %w", &Error{Kind: LanguageNotSupported}), LanguageNotSupported},
		{context.Canceled, Aborted},
		{errors.New("eof"), Network},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
