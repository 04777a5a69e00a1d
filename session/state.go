package session

type State int

const (
	Idle State = iota
	Listening
	Submitting
	ReadyForNextQuestion
	Complete
	Error
	ViewingHistory
	ViewingPastSession
)

var stateNames = [...]string{
	Idle:                 "Idle",
	Listening:            "Listening",
	Submitting:           "Submitting",
	ReadyForNextQuestion: "ReadyForNextQuestion",
	Complete:             "Complete",
	Error:                "Error",
	ViewingHistory:       "ViewingHistory",
	ViewingPastSession:   "ViewingPastSession",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Controls says which user controls are enabled.
type Controls struct {
	Start   bool
	Stop    bool
	Restart bool
}

func controlsFor(s State) Controls {
	switch s {
	case Idle, ReadyForNextQuestion:
		return Controls{Start: true}
	case Error:
		return Controls{Start: true, Restart: true}
	case Listening, Submitting:
		return Controls{Stop: true}
	case ViewingPastSession:
		return Controls{Stop: true, Restart: true}
	case Complete, ViewingHistory:
		return Controls{Restart: true}
	}
	return Controls{}
}

// canStart reports whether a listening cycle may begin from s.
func canStart(s State) bool {
	return s == Idle || s == ReadyForNextQuestion || s == Error
}
