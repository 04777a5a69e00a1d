// Package history browses past interview sessions.
package history

import (
	"context"
	"fmt"

	"mentor/backend"
)

// Source is the part of the service the browser reads from.
type Source interface {
	History(ctx context.Context) ([]backend.Summary, error)
	Session(ctx context.Context, id backend.ID) (backend.Detail, error)
}

type Summary struct {
	ID          backend.ID
	Timestamp   string
	DisplayName string
	IsComplete  bool
}

// Label is the one-line form shown in lists.
func (s Summary) Label() string {
	state := "in progress"
	if s.IsComplete {
		state = "complete"
	}
	name := s.DisplayName
	if name == "" {
		name = "Session " + string(s.ID)
	}
	if s.Timestamp == "" {
		return fmt.Sprintf("%s (%s)", name, state)
	}
	return fmt.Sprintf("%s - %s (%s)", s.Timestamp, name, state)
}

type Detail struct {
	ID          backend.ID
	Timestamp   string
	DisplayName string
	Questions   []string
	Responses   []string
	Feedback    []backend.Feedback
	Advice      []backend.Advice
	IsComplete  bool
}

type Browser struct {
	src Source
}

func NewBrowser(src Source) *Browser {
	return &Browser{src: src}
}

// ListSessions returns the summaries in the order the service sends them.
func (b *Browser) ListSessions(ctx context.Context) ([]Summary, error) {
	raw, err := b.src.History(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(raw))
	for i, s := range raw {
		out[i] = Summary{ID: s.ID, Timestamp: s.Timestamp, DisplayName: s.Name, IsComplete: s.IsComplete}
	}
	return out, nil
}

// LoadDetail fetches one session. Unknown ids wrap backend.ErrNotFound.
// Details are never cached.
func (b *Browser) LoadDetail(ctx context.Context, id backend.ID) (Detail, error) {
	d, err := b.src.Session(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if d.ID == "" {
		d.ID = id
	}
	return Detail{
		ID:          d.ID,
		Timestamp:   d.Timestamp,
		DisplayName: d.Name,
		Questions:   d.Questions,
		Responses:   d.Responses,
		Feedback:    d.Feedback,
		Advice:      d.Advice,
		IsComplete:  d.IsComplete,
	}, nil
}

func (b *Browser) CanResume(s Summary) bool {
	return !s.IsComplete
}
