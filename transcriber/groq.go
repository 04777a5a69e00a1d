package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mentor/internal/traced"
)

type Groq struct {
	baseTranscriber
	apiKey string
}

func NewGroq(apiKey string) *Groq {
	return &Groq{
		baseTranscriber: baseTranscriber{
			client: traced.New(30*time.Second, false),
			apiURL: "https://api.groq.com/openai/v1/audio/transcriptions",
		},
		apiKey: apiKey,
	}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	go g.client.Warm(g.apiURL)
	if cfg.Language != "" {
		g.SetLanguage(cfg.Language)
	}
	return newBatchSession(ctx, g.transcribe)
}

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text         string  `json:"text"`
		Start        float64 `json:"start"`
		End          float64 `json:"end"`
		NoSpeechProb float64 `json:"no_speech_prob"`
		AvgLogProb   float64 `json:"avg_logprob"`
	} `json:"segments"`
}

func (g *Groq) transcribe(ctx context.Context, audio []byte, format string) (*Result, error) {
	resp, err := postAudio(ctx, g.client, g.apiURL, g.apiKey, map[string]string{
		"model":           "whisper-large-v3-turbo",
		"response_format": "verbose_json",
		"language":        g.lang,
	}, audio, format)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, apiError("groq", resp)
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, fmt.Errorf("groq response parse error: %w", err)
	}

	// The utterance counts as silence only if every segment looks like it.
	noSpeech := 0.0
	segments := make([]Segment, 0, len(gResp.Segments))
	for i, seg := range gResp.Segments {
		if i == 0 || seg.NoSpeechProb < noSpeech {
			noSpeech = seg.NoSpeechProb
		}
		segments = append(segments, Segment{
			Text:         seg.Text,
			NoSpeechProb: seg.NoSpeechProb,
			AvgLogProb:   seg.AvgLogProb,
			Start:        seg.Start,
			End:          seg.End,
		})
	}

	return &Result{
		Text:         gResp.Text,
		Metrics:      resp.Metrics,
		RateLimit:    rateLimit(resp.Header),
		NoSpeechProb: noSpeech,
		Duration:     gResp.Duration,
		Segments:     segments,
	}, nil
}
