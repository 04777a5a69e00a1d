package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"mentor/audio"
	"mentor/backend"
	"mentor/capture"
	"mentor/clipboard"
	"mentor/meter"
	"mentor/narration"
	"mentor/shutdown"
	"mentor/transcriber"
)

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(backendURL, lang string) int {
	resetTerminal()
	shutdown.OnSignal(func() {
		resetTerminal()
		fmt.Println("\nInterrupted")
		os.Exit(1)
	})

	fmt.Println("mentor doctor - interactive system diagnostics")
	fmt.Println("==============================================")

	reader := bufio.NewReader(os.Stdin)
	allPass := true

	if !checkBackend(backendURL) {
		allPass = false
	}
	if !checkMicAndTranscription(reader, lang) {
		allPass = false
	}
	if !checkNarration(reader, lang) {
		allPass = false
	}
	if !checkClipboard() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func confirm(reader *bufio.Reader, prompt string) bool {
	fmt.Print(prompt + " [y/n]: ")
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func checkBackend(url string) bool {
	fmt.Println()
	fmt.Println("[1/4] Interview service")
	fmt.Printf("  Contacting %s...\n", url)

	client, err := backend.New(url, 5*time.Second)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		fmt.Println("  Start the service or point -backend / MENTOR_BACKEND_URL at it.")
		return false
	}
	fmt.Printf("  PASS: service answered in %dms\n", time.Since(start).Milliseconds())
	return true
}

func checkMicAndTranscription(reader *bufio.Reader, lang string) bool {
	fmt.Println()
	fmt.Println("[2/4] Microphone and transcription")

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	device, err := audio.SelectDevice(actx)
	resetTerminal()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	name := "system default"
	if device != nil {
		name = device.Name
	}
	fmt.Printf("  Using device: %s\n", name)
	if audio.IsBluetooth(name) {
		fmt.Println("  Note: headset microphones often record at reduced quality.")
	}

	trans, err := transcriber.New()
	if err != nil {
		trans = promptTranscriber(reader)
		if trans == nil {
			return false
		}
	}
	trans.SetLanguage(lang)
	fmt.Printf("  Using %s transcription\n", trans.Name())

	fmt.Println()
	fmt.Print("Press Enter, answer in a sentence, then pause...")
	reader.ReadString('\n')

	peak := watchLevel(actx, device)
	rec := capture.NewMicRecognizer(actx, trans, capture.MicConfig{Device: device, Language: lang})
	stop := make(chan struct{})
	timer := time.AfterFunc(15*time.Second, func() { close(stop) })
	defer timer.Stop()

	fmt.Println("  Listening...")
	text, err := rec.Recognize(context.Background(), stop)
	level := peak()
	fmt.Printf("  Peak level: %.0f/100\n", level)
	if err != nil {
		switch capture.KindOf(err) {
		case capture.NoSpeech:
			fmt.Println("  FAIL: no speech detected; check the input level and the selected device")
		case capture.AudioCapture:
			fmt.Printf("  FAIL: recording error: %v\n", err)
		default:
			fmt.Printf("  FAIL: transcription error: %v\n", err)
		}
		return false
	}
	if text == "" {
		fmt.Println("  FAIL: nothing was recognized")
		return false
	}
	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	if confirm(reader, "Is this correct?") {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

// watchLevel runs the volume meter on its own stream and returns a func
// that stops it and reports the loudest reading.
func watchLevel(actx audio.Context, device *audio.DeviceInfo) func() float64 {
	m, err := meter.Open(actx, device)
	if err != nil {
		return func() float64 { return 0 }
	}
	if err := m.Start(); err != nil {
		m.Close()
		return func() float64 { return 0 }
	}
	var mu sync.Mutex
	var peak float64
	done := make(chan struct{})
	go func() {
		defer close(done)
		for v := range m.Readings() {
			mu.Lock()
			peak = max(peak, v)
			mu.Unlock()
		}
	}()
	return func() float64 {
		m.Close()
		<-done
		mu.Lock()
		defer mu.Unlock()
		return peak
	}
}

func promptTranscriber(reader *bufio.Reader) transcriber.Transcriber {
	fmt.Println()
	fmt.Println("No API key in the environment. Select transcription provider:")
	fmt.Println("  1. Groq")
	fmt.Println("  2. OpenAI")
	fmt.Print("Choice [1/2]: ")

	choice, _ := reader.ReadString('\n')
	choice = strings.TrimSpace(choice)
	if choice != "" && choice != "1" && choice != "2" {
		fmt.Printf("  FAIL: invalid choice %q\n", choice)
		return nil
	}

	fmt.Print("Enter API key: ")
	apiKey, _ := reader.ReadString('\n')
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		fmt.Println("  FAIL: API key required")
		return nil
	}
	if choice == "2" {
		return transcriber.NewOpenAI(apiKey)
	}
	return transcriber.NewGroq(apiKey)
}

func checkNarration(reader *bufio.Reader, lang string) bool {
	fmt.Println()
	fmt.Println("[3/4] Narration")

	voice, err := narration.NewCommand(lang)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		fmt.Println("  Install espeak-ng (Linux) or use -mute to run without narration.")
		return false
	}
	fmt.Printf("  Speaking through %s...\n", voice.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := voice.Speak(ctx, "Tell me about a time you solved a hard problem."); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	resetTerminal()
	if confirm(reader, "Did you hear the question?") {
		fmt.Println("  PASS: narration verified by user")
		return true
	}
	fmt.Println("  FAIL: narration not confirmed")
	return false
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[4/4] Clipboard")

	if !clipboard.Available() {
		fmt.Println("  FAIL: no clipboard tool found (install xclip, xsel or wl-clipboard)")
		return false
	}

	previous, _ := clipboard.Read()
	sentinel := "mentor-doctor-test"
	if err := clipboard.Copy(sentinel); err != nil {
		fmt.Printf("  FAIL: clipboard copy failed: %v\n", err)
		return false
	}
	got, err := clipboard.Read()
	if err != nil {
		fmt.Printf("  FAIL: could not read clipboard: %v\n", err)
		return false
	}
	if previous != "" {
		clipboard.Copy(previous)
	}
	if got != sentinel {
		fmt.Printf("  FAIL: clipboard round trip got %q, want %q\n", got, sentinel)
		return false
	}
	fmt.Println("  PASS: transcript copy will work")
	return true
}
