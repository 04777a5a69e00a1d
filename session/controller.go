// Package session runs the interview state machine. One goroutine owns all
// state; capture signals, timers, backend replies and user actions reach it
// as events.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"mentor/backend"
	"mentor/capture"
	"mentor/history"
	"mentor/log"
)

const (
	DefaultCaptureTimeout = 10 * time.Second
	DefaultRetryDelay     = 2 * time.Second
)

const (
	StatusReady       = "Status: Ready"
	StatusListening   = "Status: Listening..."
	StatusSubmitting  = "Status: Submitting response..."
	StatusNoSpeech    = "Status: No speech detected, please try speaking louder or check your microphone"
	StatusComplete    = "Status: Interview Complete"
	StatusSubmitError = "Status: Error submitting response"
	StatusResetting   = "Status: Starting a new interview..."
	StatusResetError  = "Status: Error resetting interview"
	StatusLoading     = "Status: Loading history..."
	StatusHistory     = "Status: Past sessions"
	StatusHistoryErr  = "Status: Error loading history"
	StatusViewing     = "Status: Viewing past session"
	StatusNotFound    = "Status: Session not found"
	StatusDetailErr   = "Status: Error loading session"
	StatusResuming    = "Status: Resuming session..."
	StatusResumeErr   = "Status: Error resuming session"
	StatusNoResume    = "Status: Session is already complete"
)

// errSubmit is the Error reason after a failed submission.
const errSubmit = "submit"

type Capture interface {
	SetHandler(h capture.Handler)
	Start(ctx context.Context) error
	Stop()
}

type Narrator interface {
	Speak(text string)
	CancelAll()
}

type Backend interface {
	SubmitResponse(ctx context.Context, transcription string) (backend.SubmitResult, error)
	Reset(ctx context.Context) (string, error)
	Resume(ctx context.Context, id backend.ID) (string, error)
}

type History interface {
	ListSessions(ctx context.Context) ([]history.Summary, error)
	LoadDetail(ctx context.Context, id backend.ID) (history.Detail, error)
	CanResume(s history.Summary) bool
}

type Options struct {
	CaptureTimeout time.Duration
	RetryDelay     time.Duration
	// Advice is used with final feedback when the service sends none.
	Advice []backend.Advice
	// CapabilityErr disables listening for the life of the controller.
	CapabilityErr error
}

type Controller struct {
	capture  Capture
	narrator Narrator
	backend  Backend
	history  History
	sink     Sink
	opts     Options

	events  chan event
	done    chan struct{}
	started atomic.Bool
	snap    atomic.Pointer[Snapshot]
	ctx     context.Context
	wg      sync.WaitGroup

	// Loop-owned from here on.
	state    State
	reason   string
	status   string
	log      []Entry
	sessions []history.Summary
	selected *history.Detail
	answered int
	// live holds the interview transcript while a past session is shown.
	live     []Entry
	detached bool

	epoch    int // bumped when the live transcript is replaced
	token    int // bumped on every transition; timers carry it
	timer    *time.Timer
	pending  int
	cycle    int  // id of the newest capture cycle
	running  int  // id of the cycle the capture unit is running, 0 if none
	deferred bool // start once the running cycle ends
}

func New(c Capture, n Narrator, b Backend, h History, sink Sink, opts Options) *Controller {
	if opts.CaptureTimeout <= 0 {
		opts.CaptureTimeout = DefaultCaptureTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Advice == nil {
		opts.Advice = DefaultAdvice
	}
	if sink == nil {
		sink = SinkFunc(func(Snapshot) {})
	}
	ctl := &Controller{
		capture:  c,
		narrator: n,
		backend:  b,
		history:  h,
		sink:     sink,
		opts:     opts,
		events:   make(chan event, 64),
		done:     make(chan struct{}),
		state:    Idle,
		status:   StatusReady,
		ctx:      context.Background(),
	}
	if opts.CapabilityErr != nil {
		ctl.status = "Status: Speech recognition unavailable - " + opts.CapabilityErr.Error()
	}
	ctl.snap.Store(ctl.snapshot())
	return ctl
}

// Snapshot returns the latest published snapshot.
func (c *Controller) Snapshot() Snapshot { return *c.snap.Load() }

// User actions. Each is queued for the loop and returns immediately.

func (c *Controller) Start()                    { c.post(actionEvent{act: actStart}) }
func (c *Controller) Stop()                     { c.post(actionEvent{act: actStop}) }
func (c *Controller) Restart()                  { c.post(actionEvent{act: actRestart}) }
func (c *Controller) ViewHistory()              { c.post(actionEvent{act: actHistory}) }
func (c *Controller) ViewSession(id backend.ID) { c.post(actionEvent{act: actView, id: id}) }
func (c *Controller) Resume(id backend.ID)      { c.post(actionEvent{act: actResume, id: id}) }

func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// Run processes events until ctx is cancelled. It may be called once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("controller already running")
	}
	c.ctx = ctx
	c.publish()

	defer func() {
		close(c.done)
		c.stopTimer()
		c.capture.Stop()
		c.narrator.CancelAll()
		c.wg.Wait()
		log.SessionEnd(c.answered)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			ev.apply(c)
			c.publish()
		}
	}
}

func (c *Controller) snapshot() *Snapshot {
	s := &Snapshot{
		State:      c.state,
		Reason:     c.reason,
		Status:     c.status,
		Controls:   controlsFor(c.state),
		Transcript: append([]Entry(nil), c.log...),
		Sessions:   append([]history.Summary(nil), c.sessions...),
		Pending:    c.pending > 0,
		Answered:   c.answered,
	}
	if c.selected != nil {
		d := *c.selected
		s.Selected = &d
	}
	if c.opts.CapabilityErr != nil {
		s.CapabilityError = c.opts.CapabilityErr.Error()
		s.Controls.Start = false
	}
	if c.pending > 0 && s.Controls.Start {
		// Capture waits for the backend call to finish.
		s.Controls.Start = false
		s.Controls.Stop = true
	}
	return s
}

func (c *Controller) publish() {
	s := c.snapshot()
	c.snap.Store(s)
	c.sink.Publish(*s)
}

func (c *Controller) transition(to State, trigger string) {
	from := c.state
	c.state = to
	if to != Error {
		c.reason = ""
	}
	c.token++
	c.stopTimer()
	log.Transition(from.String(), to.String(), trigger)
}

func (c *Controller) fail(reason, status, trigger string) {
	c.transition(Error, trigger)
	c.reason = reason
	c.status = status
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// arm schedules kind to fire unless another transition happens first.
func (c *Controller) arm(kind timerKind, d time.Duration) {
	tok := c.token
	c.timer = time.AfterFunc(d, func() { c.post(timerEvent{kind: kind, token: tok}) })
}

// call runs fn off the loop and posts its result back.
func (c *Controller) call(fn func(ctx context.Context) event) {
	c.pending++
	c.wg.Add(1)
	ctx := c.ctx
	go func() {
		defer c.wg.Done()
		c.post(fn(ctx))
	}()
}

func (c *Controller) onAction(ev actionEvent) {
	switch ev.act {
	case actStart:
		c.startListening("start")
	case actStop:
		c.stopListening()
	case actRestart:
		c.restart()
	case actHistory:
		c.loadHistory()
	case actView:
		c.viewSession(ev.id)
	case actResume:
		c.resume(ev.id)
	}
}

func (c *Controller) startListening(trigger string) {
	if c.opts.CapabilityErr != nil || c.pending > 0 || !canStart(c.state) {
		return
	}
	c.narrator.CancelAll()
	c.transition(Listening, trigger)
	c.status = StatusListening
	c.arm(timerCapture, c.opts.CaptureTimeout)
	if c.running != 0 {
		// A stopped cycle is still winding down.
		c.deferred = true
		return
	}
	c.beginCycle()
}

func (c *Controller) beginCycle() {
	c.cycle++
	id := c.cycle
	c.capture.SetHandler(&cycleHandler{c: c, id: id})
	if err := c.capture.Start(c.ctx); err != nil {
		kind := capture.KindOf(err)
		if errors.Is(err, capture.ErrActive) {
			kind = capture.Aborted
		}
		log.Errorf("capture start: %v", err)
		c.fail(string(kind), "Status: Error - "+string(kind), "capture_start_failed")
		return
	}
	c.running = id
}

func (c *Controller) stopListening() {
	c.deferred = false
	if c.running != 0 {
		c.capture.Stop()
	}
	if c.detached {
		c.attach()
	}
	if c.state == Idle {
		c.stopTimer()
		if c.pending == 0 {
			c.status = StatusReady
		}
		return
	}
	c.transition(Idle, "stop")
	c.status = StatusReady
}

// attach puts the interview transcript back after a past session view.
func (c *Controller) attach() {
	c.log = c.live
	c.live = nil
	c.detached = false
	c.selected = nil
}

func (c *Controller) onCapture(ev captureEvent) {
	switch ev.kind {
	case capEnded:
		if ev.cycle != c.running {
			return
		}
		c.running = 0
		if c.deferred {
			c.deferred = false
			if c.state == Listening {
				c.beginCycle()
			}
			return
		}
		if c.state == Listening && ev.cycle == c.cycle {
			c.transition(Idle, "capture_ended")
			c.status = StatusReady
		}
		return
	case capStarted:
		return
	}

	if ev.cycle != c.cycle || c.state != Listening || c.deferred {
		return
	}
	switch ev.kind {
	case capResult:
		c.capture.Stop()
		c.submit(ev.text)
	case capError:
		if ev.errKind == capture.NoSpeech {
			c.transition(Idle, "no_speech")
			c.status = StatusNoSpeech
			c.arm(timerRetry, c.opts.RetryDelay)
			return
		}
		log.Warnf("capture error: %v", ev.err)
		c.fail(string(ev.errKind), "Status: Error - "+string(ev.errKind), "capture_error")
	}
}

func (c *Controller) onTimer(ev timerEvent) {
	if ev.token != c.token {
		return
	}
	c.timer = nil
	switch ev.kind {
	case timerCapture:
		if c.state == Listening && c.running != 0 {
			c.capture.Stop()
		}
	case timerRetry:
		if c.state == Idle {
			c.startListening("retry")
		}
	}
}

func (c *Controller) submit(text string) {
	c.log = append(c.log, response(text))
	log.Interview("response", text)
	c.transition(Submitting, "utterance")
	c.status = StatusSubmitting

	epoch := c.epoch
	c.call(func(ctx context.Context) event {
		res, err := c.backend.SubmitResponse(ctx, text)
		return submitEvent{epoch: epoch, res: res, err: err}
	})
}

func (c *Controller) onSubmit(ev submitEvent) {
	c.pending--
	if ev.epoch != c.epoch {
		return
	}
	if ev.err != nil {
		log.Errorf("submit response: %v", ev.err)
		c.fail(errSubmit, StatusSubmitError, "submit_failed")
		return
	}
	c.answered++
	res := ev.res
	if !res.Complete {
		c.log = append(c.log, question(res.NextQuestion))
		log.Interview("question", res.NextQuestion)
		c.transition(ReadyForNextQuestion, "next_question")
		c.status = StatusReady
		c.narrator.Speak(res.NextQuestion)
		return
	}

	tips := res.Advice
	if len(tips) == 0 {
		tips = c.opts.Advice
	}
	for i, f := range res.Feedback {
		c.log = append(c.log, feedback(i, f))
		log.Interview("feedback", fmt.Sprintf("%d: %s", i+1, f.Feedback))
	}
	for _, a := range tips {
		c.log = append(c.log, advice(a))
	}
	c.transition(Complete, "complete")
	c.status = StatusComplete
	c.narrator.Speak(summaryText(res.Feedback, tips))
}

// leaveListening stops an active cycle before a non-capture action.
func (c *Controller) leaveListening(trigger string) {
	if c.state != Listening {
		return
	}
	c.deferred = false
	if c.running != 0 {
		c.capture.Stop()
	}
	c.transition(Idle, trigger)
}

func (c *Controller) restart() {
	c.leaveListening("restart")
	if c.state == Submitting {
		// The reply to the in-flight submit is dropped by its epoch.
		c.transition(Idle, "restart")
	}
	c.epoch++
	c.status = StatusResetting
	epoch := c.epoch
	c.call(func(ctx context.Context) event {
		q, err := c.backend.Reset(ctx)
		return questionEvent{op: opReset, epoch: epoch, question: q, err: err}
	})
}

func (c *Controller) resume(id backend.ID) {
	if c.state != ViewingHistory && c.state != ViewingPastSession {
		return
	}
	if !c.resumable(id) {
		c.status = StatusNoResume
		return
	}
	c.epoch++
	c.status = StatusResuming
	epoch := c.epoch
	c.call(func(ctx context.Context) event {
		q, err := c.backend.Resume(ctx, id)
		return questionEvent{op: opResume, epoch: epoch, id: id, question: q, err: err}
	})
}

func (c *Controller) resumable(id backend.ID) bool {
	if c.selected != nil && c.selected.ID == id {
		return !c.selected.IsComplete
	}
	for _, s := range c.sessions {
		if s.ID == id {
			return c.history.CanResume(s)
		}
	}
	return false
}

func (c *Controller) onQuestion(ev questionEvent) {
	c.pending--
	if ev.epoch != c.epoch {
		return
	}
	if ev.err != nil {
		switch {
		case ev.op == opReset:
			log.Errorf("reset: %v", ev.err)
			c.status = StatusResetError
		case errors.Is(ev.err, backend.ErrNotFound):
			c.status = StatusNotFound
		default:
			log.Errorf("resume %s: %v", ev.id, ev.err)
			c.status = StatusResumeErr
		}
		return
	}

	c.leaveListening(string(ev.op))
	c.log = []Entry{question(ev.question)}
	c.selected = nil
	c.live = nil
	c.detached = false
	c.answered = 0
	log.Interview("question", ev.question)
	c.transition(ReadyForNextQuestion, string(ev.op))
	c.status = StatusReady
	c.narrator.Speak(ev.question)
}

func (c *Controller) loadHistory() {
	c.leaveListening("view_history")
	c.status = StatusLoading
	c.call(func(ctx context.Context) event {
		list, err := c.history.ListSessions(ctx)
		return historyEvent{list: list, err: err}
	})
}

func (c *Controller) onHistory(ev historyEvent) {
	c.pending--
	if ev.err != nil {
		log.Errorf("list history: %v", ev.err)
		c.status = StatusHistoryErr
		return
	}
	c.sessions = ev.list
	c.selected = nil
	c.leaveListening("view_history")
	if c.state != ViewingHistory {
		c.transition(ViewingHistory, "view_history")
	}
	c.status = StatusHistory
}

func (c *Controller) viewSession(id backend.ID) {
	if c.state != ViewingHistory && c.state != ViewingPastSession {
		return
	}
	c.status = StatusLoading
	c.call(func(ctx context.Context) event {
		d, err := c.history.LoadDetail(ctx, id)
		return detailEvent{id: id, detail: d, err: err}
	})
}

func (c *Controller) onDetail(ev detailEvent) {
	c.pending--
	if c.state != ViewingHistory && c.state != ViewingPastSession {
		return
	}
	if ev.err != nil {
		if errors.Is(ev.err, backend.ErrNotFound) {
			c.status = StatusNotFound
		} else {
			log.Errorf("load session %s: %v", ev.id, ev.err)
			c.status = StatusDetailErr
		}
		return
	}

	d := ev.detail
	if !c.detached {
		c.live = c.log
		c.detached = true
	}
	c.epoch++
	c.selected = &d
	c.log = pastTranscript(d, c.opts.Advice)
	c.transition(ViewingPastSession, "view_session")
	c.status = StatusViewing
}

// pastTranscript lays out a stored session the way it was heard live.
func pastTranscript(d history.Detail, fallback []backend.Advice) []Entry {
	var out []Entry
	for i, q := range d.Questions {
		out = append(out, question(q))
		if i < len(d.Responses) {
			out = append(out, response(d.Responses[i]))
		}
	}
	if !d.IsComplete {
		return out
	}
	for i, f := range d.Feedback {
		if f.Question == "" && i < len(d.Questions) {
			f.Question = d.Questions[i]
		}
		if f.Response == "" && i < len(d.Responses) {
			f.Response = d.Responses[i]
		}
		out = append(out, feedback(i, f))
	}
	tips := d.Advice
	if len(tips) == 0 {
		tips = fallback
	}
	for _, a := range tips {
		out = append(out, advice(a))
	}
	return out
}
