package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"mentor/backend"
	"mentor/beep"
	"mentor/capture"
	"mentor/history"
	"mentor/log"
	"mentor/narration"
	"mentor/session"
)

var waitTimeout = 15 * time.Second

// runTestMode runs the controller headless against the configured service.
// Speech comes from SAY and SILENCE lines on stdin instead of a microphone.
func runTestMode(client *backend.Client, lang string, opts session.Options) int {
	beep.Disable()
	defer log.Close()

	script := capture.NewScripted()
	watch := newWatcher()
	ctl := session.New(
		capture.NewUnit(script),
		narration.NewUnit(narration.Silent{}),
		client,
		history.NewBrowser(client),
		session.Sinks{newConsoleSink(os.Stdout), watch},
		opts,
	)
	log.SessionStart(client.URL(), "scripted", lang)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctl.Run(ctx)
	}()

	code := drive(ctl, watch, script, os.Stdin, os.Stderr)
	cancel()
	<-done
	return code
}

// drive reads one command per line and dispatches it until QUIT or EOF.
// script is nil when speech comes from a real recognizer. The return value
// is non-zero when a WAIT timed out.
func drive(ctl actions, watch *watcher, script *capture.ScriptedRecognizer, r io.Reader, errOut io.Writer) int {
	code := 0
	mark := watch.count()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		cmd = strings.ToUpper(cmd)
		arg = strings.TrimSpace(arg)

		if cmd == "WAIT" {
			want := settled
			if arg != "" {
				want = func(s session.Snapshot) bool { return s.State.String() == arg && !s.Pending }
			}
			if !watch.await(mark, want, waitTimeout) {
				fmt.Fprintf(errOut, "WAIT %s: timed out in %s\n", arg, watch.latest().State)
				code = 1
			}
			continue
		}

		switch cmd {
		case "START":
			mark = watch.count()
			ctl.Start()
		case "STOP":
			mark = watch.count()
			ctl.Stop()
		case "RESTART":
			mark = watch.count()
			ctl.Restart()
		case "HISTORY":
			mark = watch.count()
			ctl.ViewHistory()
		case "VIEW":
			mark = watch.count()
			ctl.ViewSession(backend.ID(arg))
		case "RESUME":
			mark = watch.count()
			ctl.Resume(backend.ID(arg))
		case "SAY", "SILENCE", "FAIL":
			if script == nil {
				fmt.Fprintf(errOut, "%s needs -test\n", cmd)
				continue
			}
			mark = watch.count()
			switch cmd {
			case "SAY":
				script.Push(capture.Say(arg))
			case "SILENCE":
				script.Push(capture.Silence())
			case "FAIL":
				script.Push(capture.Fail(capture.ErrorKind(arg)))
			}
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			return code
		default:
			fmt.Fprintf(errOut, "unknown command %q\n", cmd)
		}
	}
	return code
}
