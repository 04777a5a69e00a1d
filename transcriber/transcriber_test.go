package transcriber

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"mentor/encoder"
	"mentor/internal/traced"
)

func pcmOf(n int) []byte {
	pcm := make([]byte, n*2)
	for i := range n {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(i%1000))
	}
	return pcm
}

func TestNewPicksProviderFromEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New(); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("err = %v, want ErrNoProvider", err)
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	tr, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if tr.Name() != "openai" {
		t.Errorf("Name = %q, want openai", tr.Name())
	}

	t.Setenv("GROQ_API_KEY", "gsk-test")
	tr, err = New()
	if err != nil {
		t.Fatal(err)
	}
	if tr.Name() != "groq" {
		t.Errorf("Name = %q, want groq", tr.Name())
	}
}

func TestBatchSessionFeedAndClose(t *testing.T) {
	var gotFormat string
	fakeFn := func(_ context.Context, audio []byte, format string) (*Result, error) {
		gotFormat = format
		if string(audio[:4]) != "fLaC" {
			t.Errorf("upload is not flac")
		}
		return &Result{
			Text:    "  hello world ",
			Metrics: &traced.Metrics{TTFB: 10 * time.Millisecond},
		}, nil
	}

	bs, err := newBatchSession(context.Background(), fakeFn)
	if err != nil {
		t.Fatalf("newBatchSession: %v", err)
	}

	bs.Feed(pcmOf(encoder.BlockSize + encoder.BlockSize/2))

	result, err := bs.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if gotFormat != "flac" {
		t.Errorf("format = %q, want flac", gotFormat)
	}
	if result.Text != "hello world" {
		t.Errorf("Text = %q, want %q", result.Text, "hello world")
	}
	if !result.HasText || result.NoSpeech {
		t.Error("expected text with speech")
	}
	if result.Batch == nil || result.Batch.AudioLengthS <= 0 {
		t.Fatal("expected positive audio length")
	}
	if len(result.Metrics) == 0 {
		t.Error("expected formatted metrics")
	}
}

func TestBatchSessionEmptySkipsUpload(t *testing.T) {
	called := false
	bs, err := newBatchSession(context.Background(), func(context.Context, []byte, string) (*Result, error) {
		called = true
		return &Result{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	result, err := bs.Close()
	if err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("empty session should not upload")
	}
	if !result.NoSpeech {
		t.Error("empty session should report no speech")
	}
}

func TestBatchSessionNoSpeechProbability(t *testing.T) {
	bs, err := newBatchSession(context.Background(), func(context.Context, []byte, string) (*Result, error) {
		return &Result{Text: "Thank you.", NoSpeechProb: 0.93}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	bs.Feed(pcmOf(1000))
	result, err := bs.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !result.NoSpeech || result.HasText {
		t.Errorf("hallucinated silence should be no speech: %+v", result)
	}
}

func TestBatchSessionDoubleClose(t *testing.T) {
	bs, err := newBatchSession(context.Background(), func(context.Context, []byte, string) (*Result, error) {
		return &Result{Text: "x"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	bs.Close()
	if _, err := bs.Close(); err == nil {
		t.Error("second Close should fail")
	}
	bs.Feed(pcmOf(10)) // ignored after close, must not panic
}

func TestFakeSession(t *testing.T) {
	f := NewFake("answer", nil)
	sess, err := f.NewSession(context.Background(), SessionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	sess.Feed(make([]byte, 64))
	res, err := sess.Close()
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "answer" || f.FedBytes() != 64 {
		t.Errorf("got %+v fed=%d", res, f.FedBytes())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sess, _ = f.NewSession(ctx, SessionConfig{})
	if _, err := sess.Close(); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
