// Package backend talks to the interview question and feedback service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mentor/internal/traced"
	"mentor/log"
)

const DefaultURL = "http://127.0.0.1:5000"

// ErrNotFound means the service has no session with the requested id.
var ErrNotFound = errors.New("session not found")

// StatusError is a non-2xx reply.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Code, e.Body)
}

type Client struct {
	base string
	http *traced.Client
}

// New returns a client for the service at baseURL. The service keeps the
// live interview in its session cookie, so the client keeps cookies.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", baseURL)
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: traced.New(timeout, true),
	}, nil
}

func (c *Client) URL() string { return c.base }

// Ping checks the service answers at all.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.History(ctx)
	return err
}

func (c *Client) SubmitResponse(ctx context.Context, transcription string) (SubmitResult, error) {
	var res SubmitResult
	err := c.call(ctx, "submit_response", http.MethodPost, "/submit_response",
		map[string]string{"transcription": transcription}, &res)
	if err == nil && res.Error != "" {
		err = fmt.Errorf("submit_response: %s", res.Error)
	}
	return res, err
}

// Reset starts a new interview and returns its first question.
func (c *Client) Reset(ctx context.Context) (string, error) {
	var res questionReply
	if err := c.call(ctx, "reset", http.MethodPost, "/reset", nil, &res); err != nil {
		return "", err
	}
	if res.Error != "" {
		return "", fmt.Errorf("reset: %s", res.Error)
	}
	return res.Question, nil
}

func (c *Client) History(ctx context.Context) ([]Summary, error) {
	var res []Summary
	if err := c.call(ctx, "history", http.MethodGet, "/history", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) Session(ctx context.Context, id ID) (Detail, error) {
	var res Detail
	err := c.call(ctx, "history_detail", http.MethodGet, "/history/"+url.PathEscape(string(id)), nil, &res)
	if err != nil {
		return Detail{}, err
	}
	if res.Error != "" {
		return Detail{}, fmt.Errorf("%w: %s", ErrNotFound, res.Error)
	}
	if res.ID == "" {
		res.ID = id
	}
	return res, nil
}

// Resume makes id the live interview and returns its next question.
func (c *Client) Resume(ctx context.Context, id ID) (string, error) {
	var res questionReply
	err := c.call(ctx, "resume", http.MethodPost, "/resume/"+url.PathEscape(string(id)), nil, &res)
	if err != nil {
		return "", err
	}
	if res.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, res.Error)
	}
	return res.Question, nil
}

func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		err = fmt.Errorf("%s: %w", op, err)
		log.BackendCall(op, 0, time.Since(start), err)
		return err
	}
	err = decode(op, resp, out, op == "history_detail" || op == "resume")
	log.BackendCall(op, resp.StatusCode, time.Since(start), err)
	return err
}

func decode(op string, resp *traced.Response, out any, mapNotFound bool) error {
	if mapNotFound && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(resp.Body))}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s: decoding reply: %w", op, err)
	}
	return nil
}
