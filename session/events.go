package session

import (
	"mentor/backend"
	"mentor/capture"
	"mentor/history"
)

type event interface {
	apply(c *Controller)
}

type action int

const (
	actStart action = iota
	actStop
	actRestart
	actHistory
	actView
	actResume
)

type actionEvent struct {
	act action
	id  backend.ID
}

func (e actionEvent) apply(c *Controller) { c.onAction(e) }

type captureKind int

const (
	capStarted captureKind = iota
	capResult
	capError
	capEnded
)

type captureEvent struct {
	cycle   int
	kind    captureKind
	text    string
	errKind capture.ErrorKind
	err     error
}

func (e captureEvent) apply(c *Controller) { c.onCapture(e) }

// cycleHandler tags capture signals with the cycle that produced them.
type cycleHandler struct {
	c  *Controller
	id int
}

func (h *cycleHandler) CaptureStarted() {
	h.c.post(captureEvent{cycle: h.id, kind: capStarted})
}

func (h *cycleHandler) CaptureResult(text string) {
	h.c.post(captureEvent{cycle: h.id, kind: capResult, text: text})
}

func (h *cycleHandler) CaptureError(kind capture.ErrorKind, err error) {
	h.c.post(captureEvent{cycle: h.id, kind: capError, errKind: kind, err: err})
}

func (h *cycleHandler) CaptureEnded() {
	h.c.post(captureEvent{cycle: h.id, kind: capEnded})
}

type timerKind int

const (
	timerCapture timerKind = iota
	timerRetry
)

type timerEvent struct {
	kind  timerKind
	token int
}

func (e timerEvent) apply(c *Controller) { c.onTimer(e) }

type submitEvent struct {
	epoch int
	res   backend.SubmitResult
	err   error
}

func (e submitEvent) apply(c *Controller) { c.onSubmit(e) }

type questionOp string

const (
	opReset  questionOp = "reset"
	opResume questionOp = "resume"
)

type questionEvent struct {
	op       questionOp
	epoch    int
	id       backend.ID
	question string
	err      error
}

func (e questionEvent) apply(c *Controller) { c.onQuestion(e) }

type historyEvent struct {
	list []history.Summary
	err  error
}

func (e historyEvent) apply(c *Controller) { c.onHistory(e) }

type detailEvent struct {
	id     backend.ID
	detail history.Detail
	err    error
}

func (e detailEvent) apply(c *Controller) { c.onDetail(e) }
