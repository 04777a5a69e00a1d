package main

import (
	"bytes"
	"slices"
	"strings"
	"testing"
	"time"

	"mentor/beep"
	"mentor/session"
)

func TestCueSink(t *testing.T) {
	var cues []beep.Cue
	c := &cueSink{last: session.Idle, play: func(q beep.Cue) { cues = append(cues, q) }}

	steps := []session.Snapshot{
		{State: session.Idle},
		{State: session.Listening},
		{State: session.Listening},
		{State: session.Submitting},
		{State: session.ReadyForNextQuestion},
		{State: session.Listening},
		{State: session.Idle, Status: session.StatusNoSpeech},
		{State: session.Listening},
		{State: session.Error, Reason: "network"},
	}
	for _, s := range steps {
		c.Publish(s)
	}

	want := []beep.Cue{beep.Listen, beep.Done, beep.Listen, beep.Fail, beep.Listen, beep.Fail}
	if !slices.Equal(cues, want) {
		t.Errorf("cues = %v, want %v", cues, want)
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	c := newConsoleSink(&buf)
	q1 := session.Entry{Kind: session.QuestionEntry, Text: "Q1"}
	r1 := session.Entry{Kind: session.ResponseEntry, Text: "A1"}
	q2 := session.Entry{Kind: session.QuestionEntry, Text: "Q2"}

	c.Publish(session.Snapshot{State: session.ReadyForNextQuestion, Status: session.StatusReady, Transcript: []session.Entry{q1}})
	c.Publish(session.Snapshot{State: session.ReadyForNextQuestion, Status: session.StatusReady, Transcript: []session.Entry{q1}})
	c.Publish(session.Snapshot{State: session.ReadyForNextQuestion, Status: session.StatusReady, Transcript: []session.Entry{q1, r1, q2}})
	c.Publish(session.Snapshot{State: session.ReadyForNextQuestion, Status: session.StatusReady, Transcript: []session.Entry{q2}})

	want := strings.Join([]string{
		"[ReadyForNextQuestion] Status: Ready",
		"Current Question: Q1",
		"Response: A1",
		"Current Question: Q2",
		"---",
		"Current Question: Q2",
	}, "\n") + "\n"
	if got := buf.String(); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}

func TestWatcherAwait(t *testing.T) {
	w := newWatcher()
	w.Publish(session.Snapshot{State: session.Listening})
	mark := w.count()

	go func() {
		time.Sleep(10 * time.Millisecond)
		w.Publish(session.Snapshot{State: session.Submitting, Pending: true})
		w.Publish(session.Snapshot{State: session.ReadyForNextQuestion})
	}()
	if !w.await(mark, settled, time.Second) {
		t.Fatal("await timed out")
	}
	if got := w.latest().State; got != session.ReadyForNextQuestion {
		t.Errorf("latest state = %s", got)
	}

	if w.await(w.count(), settled, 20*time.Millisecond) {
		t.Error("await returned true with no new snapshot")
	}
}

func TestSettled(t *testing.T) {
	tests := []struct {
		snap session.Snapshot
		want bool
	}{
		{session.Snapshot{State: session.Idle}, true},
		{session.Snapshot{State: session.Idle, Pending: true}, false},
		{session.Snapshot{State: session.Listening}, false},
		{session.Snapshot{State: session.Submitting}, false},
		{session.Snapshot{State: session.Complete}, true},
		{session.Snapshot{State: session.ViewingHistory}, true},
	}
	for _, tt := range tests {
		if got := settled(tt.snap); got != tt.want {
			t.Errorf("settled(%s pending=%v) = %v", tt.snap.State, tt.snap.Pending, got)
		}
	}
}
