package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mentor/backend"
	"mentor/capture"
	"mentor/history"
	"mentor/narration"
	"mentor/session"
)

type liveRig struct {
	svc    *backend.FakeService
	ctl    *session.Controller
	watch  *watcher
	script *capture.ScriptedRecognizer
}

func newLiveRig(t *testing.T) *liveRig {
	t.Helper()
	svc := backend.NewFakeService(
		[]string{"Tell me about yourself", "Why this role?"},
		[]backend.Advice{{Title: "Breathe", Description: "Pause before answering."}},
	)
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)

	client, err := backend.New(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	rig := &liveRig{svc: svc, watch: newWatcher(), script: capture.NewScripted()}
	rig.ctl = session.New(
		capture.NewUnit(rig.script),
		narration.NewUnit(narration.Silent{}),
		client,
		history.NewBrowser(client),
		rig.watch,
		session.Options{RetryDelay: time.Hour},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		rig.ctl.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return rig
}

func (r *liveRig) drive(t *testing.T, lines ...string) {
	t.Helper()
	var errOut bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	if code := drive(r.ctl, r.watch, r.script, in, &errOut); code != 0 {
		t.Fatalf("drive exit %d: %s", code, errOut.String())
	}
}

func TestDriveFullInterview(t *testing.T) {
	rig := newLiveRig(t)
	rig.drive(t,
		"RESTART", "WAIT",
		"START", "SAY I build distributed systems", "WAIT",
		"START", "SAY the team works on things I care about", "WAIT Complete",
	)

	snap := rig.ctl.Snapshot()
	if snap.State != session.Complete {
		t.Fatalf("state = %s, want Complete", snap.State)
	}
	text := session.Render(snap.Transcript)
	for _, want := range []string{
		"Response: I build distributed systems",
		`Question 2: "Why this role?"`,
		"Breathe: Pause before answering.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("transcript missing %q:\n%s", want, text)
		}
	}
	if n := rig.svc.Calls("POST /submit_response"); n != 2 {
		t.Errorf("submit calls = %d, want 2", n)
	}
}

func TestDriveHistoryAndResume(t *testing.T) {
	rig := newLiveRig(t)
	rig.drive(t,
		"RESTART", "WAIT",
		"START", "SAY first answer", "WAIT",
		"HISTORY", "WAIT ViewingHistory",
		"VIEW 1", "WAIT ViewingPastSession",
	)
	snap := rig.ctl.Snapshot()
	if snap.Selected == nil || snap.Selected.ID != "1" {
		t.Fatalf("selected = %+v, want session 1", snap.Selected)
	}

	rig.drive(t, "RESUME 1", "WAIT ReadyForNextQuestion")
	snap = rig.ctl.Snapshot()
	if len(snap.Transcript) != 1 || snap.Transcript[0].Text != "Why this role?" {
		t.Errorf("transcript after resume = %+v", snap.Transcript)
	}
}

func TestDriveWaitTimeout(t *testing.T) {
	prev := waitTimeout
	waitTimeout = 200 * time.Millisecond
	t.Cleanup(func() { waitTimeout = prev })

	rig := newLiveRig(t)
	var errOut bytes.Buffer
	code := drive(rig.ctl, rig.watch, rig.script, strings.NewReader("HISTORY\nWAIT Complete\n"), &errOut)
	if code == 0 {
		t.Error("expected non-zero exit after a timed out WAIT")
	}
	if !strings.Contains(errOut.String(), "WAIT Complete: timed out") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestDriveRejectsScriptWithoutRecognizer(t *testing.T) {
	var errOut bytes.Buffer
	code := drive(&recActions{}, newWatcher(), nil, strings.NewReader("SAY hello\nBOGUS\nQUIT\nSTART\n"), &errOut)
	if code != 0 {
		t.Errorf("code = %d", code)
	}
	out := errOut.String()
	if !strings.Contains(out, "SAY needs -test") || !strings.Contains(out, `unknown command "BOGUS"`) {
		t.Errorf("stderr = %q", out)
	}
}

func TestDriveDispatch(t *testing.T) {
	rec := &recActions{}
	drive(rec, newWatcher(), nil, strings.NewReader("# comment\nstart\nSTOP\n\nRESTART\nHISTORY\nVIEW 4\nRESUME 4\n"), &bytes.Buffer{})
	want := "start stop restart history view:4 resume:4"
	if got := strings.Join(rec.calls, " "); got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}
