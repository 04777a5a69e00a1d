package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"mentor/internal/traced"
)

// postAudio sends audio as a multipart upload in the OpenAI transcription
// format, which Groq also accepts.
func postAudio(ctx context.Context, client *traced.Client, apiURL, apiKey string, fields map[string]string, audio []byte, format string) (*traced.Response, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := writer.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return client.Do(req)
}

func rateLimit(h http.Header) string {
	remaining := traced.FirstHeader(h, "x-ratelimit-remaining-requests")
	limit := traced.FirstHeader(h, "x-ratelimit-limit-requests")
	return remaining + "/" + limit
}

func apiError(provider string, resp *traced.Response) error {
	return fmt.Errorf("%s API error %d: %s", provider, resp.StatusCode, string(resp.Body))
}
