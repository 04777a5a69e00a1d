package capture

import "time"

const (
	tickInterval    = 100 * time.Millisecond
	trailingSilence = 1200 * time.Millisecond
	noSpeechWait    = 6 * time.Second
	speechDebounce  = 2 // consecutive voiced ticks to confirm speech
)

type EndEvent int

const (
	EndNone     EndEvent = iota
	EndSilence           // speech was heard and has stopped
	EndNoSpeech          // nothing voiced within the wait
)

func (e EndEvent) String() string {
	switch e {
	case EndSilence:
		return "silence"
	case EndNoSpeech:
		return "no_speech"
	}
	return "none"
}

// endpointer decides from per-tick voice activity when an utterance is over.
type endpointer struct {
	silenceAt  int
	noSpeechAt int

	ticks       int
	speechTicks int
	run         int
	trailing    int
	heard       bool
}

func newEndpointer(silence, noSpeech time.Duration) *endpointer {
	return &endpointer{
		silenceAt:  max(1, int(silence/tickInterval)),
		noSpeechAt: max(1, int(noSpeech/tickInterval)),
	}
}

func (e *endpointer) Tick(voiced bool) EndEvent {
	e.ticks++
	if voiced {
		e.speechTicks++
		e.run++
		e.trailing = 0
		if e.run >= speechDebounce {
			e.heard = true
		}
		return EndNone
	}
	e.run = 0

	if !e.heard {
		if e.ticks >= e.noSpeechAt {
			return EndNoSpeech
		}
		return EndNone
	}
	e.trailing++
	if e.trailing >= e.silenceAt {
		return EndSilence
	}
	return EndNone
}

func (e *endpointer) Heard() bool { return e.heard }
