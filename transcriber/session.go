package transcriber

type SessionConfig struct {
	Language string
}

type BatchStats struct {
	AudioLengthS     float64
	RawSizeKB        float64
	CompressedSizeKB float64
	EncodeTimeMs     float64
	TTFBMs           float64
	TotalTimeMs      float64
	ConnReused       bool
}

type SessionResult struct {
	Text      string
	HasText   bool
	NoSpeech  bool
	RateLimit string // "remaining/limit" or empty
	Batch     *BatchStats
	Metrics   []string // pre-formatted lines for the UI
}

// Session accumulates one utterance. Feed may be called from the audio
// callback; Close encodes what was fed and uploads it.
type Session interface {
	Feed(pcm []byte)
	Close() (SessionResult, error)
}
