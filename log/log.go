package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog       zerolog.Logger
	diagFile      *os.File
	interviewFile *os.File
	logMu         sync.Mutex
	logReady      bool
	pid           int
	dir           string
)

const (
	diagName      = "diagnostics_log.txt"
	interviewName = "interview_log.txt"
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absFromWd(flagPath)
	}

	// Priority 2: MENTOR_LOG_PATH environment variable
	if envPath := os.Getenv("MENTOR_LOG_PATH"); envPath != "" {
		return absFromWd(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absFromWd(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, diagName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	interviewFile, err = os.OpenFile(filepath.Join(dir, interviewName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if interviewFile != nil {
		interviewFile.Close()
		interviewFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// Transition records one controller state change.
func Transition(from, to, trigger string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("from", from).
		Str("to", to).
		Str("trigger", trigger).
		Msg("transition")
}

// BackendCall records the outcome and timing of one question-service request.
func BackendCall(op string, status int, elapsed time.Duration, err error) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if err != nil {
		ev = diagLog.Error().Err(err)
	}
	ev.Str("op", op).
		Int("status", status).
		Float64("total_ms", float64(elapsed.Microseconds())/1000).
		Msg("backend_call")
}

type CaptureStats struct {
	AudioS       float64
	SpeechTicks  int
	TotalTicks   int
	Reason       string
	TranscribeMs float64
}

func CaptureCycle(s CaptureStats) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("audio_s", s.AudioS).
		Int("speech_ticks", s.SpeechTicks).
		Int("total_ticks", s.TotalTicks).
		Str("end", s.Reason).
		Float64("transcribe_ms", s.TranscribeMs).
		Msg("capture_cycle")
}

// Interview appends one transcript line to the interview journal.
func Interview(role, text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, role, text)
	interviewFile.WriteString(line)
}

func SessionStart(backendURL, provider, lang string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("backend", backendURL).
		Str("provider", provider).
		Str("lang", lang).
		Msg("session_start")
}

func SessionEnd(answered int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("answered", answered).
		Msg("session_end")
}
