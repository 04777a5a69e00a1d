package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"mentor/audio"
	"mentor/backend"
	"mentor/capture"
	"mentor/doctor"
	"mentor/history"
	"mentor/log"
	"mentor/meter"
	"mentor/narration"
	"mentor/session"
	"mentor/shutdown"
	"mentor/transcriber"
)

var version = "dev"

const backendTimeout = 30 * time.Second

var (
	shutdownOnce sync.Once
	shutdownHook func()
)

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if shutdownHook != nil {
			shutdownHook()
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

// unavailable stands in for the recognizer when the host cannot capture
// speech. The controller never starts it while the capability error is set.
type unavailable struct{ err error }

func (u unavailable) Recognize(context.Context, <-chan struct{}) (string, error) {
	return "", &capture.Error{Kind: capture.NotAllowed, Err: u.err}
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func main() {
	backendFlag := flag.String("backend", "", "Interview service base URL (default $MENTOR_BACKEND_URL or "+backend.DefaultURL+")")
	langFlag := flag.String("lang", "en", "Language code for recognition and narration")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	timeoutFlag := flag.Duration("timeout", session.DefaultCaptureTimeout, "Give up listening after this long")
	retryFlag := flag.Duration("retry", session.DefaultRetryDelay, "Delay before listening again after no speech")
	muteFlag := flag.Bool("mute", false, "Do not narrate questions and feedback")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven, scripted speech)")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI (otherwise stdin commands)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	flag.Parse()

	backendURL := *backendFlag
	if backendURL == "" {
		backendURL = os.Getenv("MENTOR_BACKEND_URL")
	}
	if backendURL == "" {
		backendURL = backend.DefaultURL
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("mentor %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(backendURL, *langFlag))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	opts := session.Options{
		CaptureTimeout: *timeoutFlag,
		RetryDelay:     *retryFlag,
	}

	client, err := backend.New(backendURL, backendTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *testFlag {
		os.Exit(runTestMode(client, *langFlag, opts))
	}

	recognizer, actx, dev, provider := buildRecognizer(*langFlag, *deviceFlag, *setupFlag, &opts)

	var synth narration.Synthesizer = narration.Silent{}
	if !*muteFlag {
		cmd, err := narration.NewCommand(*langFlag)
		if err != nil {
			log.Warnf("narration unavailable: %v", err)
		} else {
			synth = cmd
		}
	}
	narr := narration.NewUnit(synth)

	watch := newWatcher()
	sinks := session.Sinks{newCueSink()}
	if *tuiFlag {
		sinks = append(sinks, session.SinkFunc(func(s session.Snapshot) { tuiSend(SnapshotMsg{Snap: s}) }))
	} else {
		sinks = append(sinks, newConsoleSink(os.Stdout), watch)
	}

	ctl := session.New(capture.NewUnit(recognizer), narr, client, history.NewBrowser(client), sinks, opts)
	log.SessionStart(client.URL(), provider, *langFlag)

	if *tuiFlag {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(ctl, deviceLineText(dev))
		tuiMu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := ctl.Run(ctx); err != nil {
			log.Errorf("controller: %v", err)
		}
	}()

	var vol *meter.Meter
	if actx != nil {
		vol = startMeter(actx, dev)
	}

	shutdownHook = func() {
		cancel()
		<-loopDone
		if vol != nil {
			vol.Close()
		}
		if actx != nil {
			actx.Close()
		}
	}

	shutdown.OnSignal(gracefulShutdown)

	// The first question is fetched and narrated right away.
	ctl.Restart()

	if !*tuiFlag {
		drive(ctl, watch, nil, os.Stdin, os.Stderr)
		gracefulShutdown()
		return
	}

	if vol != nil {
		go func() {
			for v := range vol.Readings() {
				tuiSend(VolumeMsg{Level: v})
			}
		}()
	}
	if _, err := tuiProgram.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
	}
	gracefulShutdown()
}

// buildRecognizer assembles the microphone recognizer. When speech capture
// cannot work, the reason lands in opts.CapabilityErr and a stand-in is
// returned.
func buildRecognizer(lang, device string, setup bool, opts *session.Options) (capture.Recognizer, audio.Context, *audio.DeviceInfo, string) {
	tr, err := transcriber.New()
	if err != nil {
		log.Errorf("transcriber init error: %v", err)
		opts.CapabilityErr = err
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		opts.CapabilityErr = errors.Join(opts.CapabilityErr, fmt.Errorf("audio: %w", err))
		return unavailable{err: opts.CapabilityErr}, nil, nil, "none"
	}

	var dev *audio.DeviceInfo
	switch {
	case device != "":
		dev, err = audio.FindDevice(actx, device)
		if err != nil {
			log.Warnf("device lookup failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: %v, using default device\n", err)
			dev = nil
		}
	case setup:
		dev, err = audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			dev = nil
		}
	}
	if dev != nil {
		log.Infof("recording_device: %s (%s)", dev.Name, dev.ID)
	}

	if tr == nil {
		return unavailable{err: opts.CapabilityErr}, actx, dev, "none"
	}
	tr.SetLanguage(lang)
	return capture.NewMicRecognizer(actx, tr, capture.MicConfig{Device: dev, Language: lang}), actx, dev, tr.Name()
}

// startMeter opens the level meter on its own stream. A failure leaves the
// meter at rest.
func startMeter(actx audio.Context, dev *audio.DeviceInfo) *meter.Meter {
	m, err := meter.Open(actx, dev)
	if err != nil {
		log.Warnf("volume meter unavailable: %v", err)
		return nil
	}
	if err := m.Start(); err != nil {
		log.Warnf("volume meter start: %v", err)
		m.Close()
		return nil
	}
	return m
}
