package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mentor/internal/traced"
)

type OpenAI struct {
	baseTranscriber
	apiKey string
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		baseTranscriber: baseTranscriber{
			client: traced.New(30*time.Second, false),
			apiURL: "https://api.openai.com/v1/audio/transcriptions",
		},
		apiKey: apiKey,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	go o.client.Warm(o.apiURL)
	if cfg.Language != "" {
		o.SetLanguage(cfg.Language)
	}
	return newBatchSession(ctx, o.transcribe)
}

func (o *OpenAI) transcribe(ctx context.Context, audio []byte, format string) (*Result, error) {
	resp, err := postAudio(ctx, o.client, o.apiURL, o.apiKey, map[string]string{
		"model":           "gpt-4o-transcribe",
		"response_format": "json",
		"language":        o.lang,
	}, audio, format)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, apiError("openai", resp)
	}

	var oResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body, &oResp); err != nil {
		return nil, fmt.Errorf("openai response parse error: %w", err)
	}

	return &Result{
		Text:      oResp.Text,
		Metrics:   resp.Metrics,
		RateLimit: rateLimit(resp.Header),
	}, nil
}
