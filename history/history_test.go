package history

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mentor/backend"
)

type stubSource struct {
	list    []backend.Summary
	details map[backend.ID]backend.Detail
	err     error
	loads   int
}

func (s *stubSource) History(context.Context) ([]backend.Summary, error) {
	return s.list, s.err
}

func (s *stubSource) Session(_ context.Context, id backend.ID) (backend.Detail, error) {
	s.loads++
	d, ok := s.details[id]
	if !ok {
		return backend.Detail{}, fmt.Errorf("history_detail: %w", backend.ErrNotFound)
	}
	return d, nil
}

func TestListSessionsKeepsServerOrder(t *testing.T) {
	src := &stubSource{list: []backend.Summary{
		{ID: "3", Name: "c", IsComplete: true},
		{ID: "1", Name: "a"},
		{ID: "2", Name: "b", IsComplete: true},
	}}
	got, err := NewBrowser(src).ListSessions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []backend.ID{"3", "1", "2"} {
		if got[i].ID != want {
			t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, want)
		}
	}
	if got[1].DisplayName != "a" || got[1].IsComplete {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestListSessionsError(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	if _, err := NewBrowser(src).ListSessions(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadDetail(t *testing.T) {
	src := &stubSource{details: map[backend.ID]backend.Detail{
		"1": {Name: "n", Questions: []string{"Q1"}, Responses: []string{"A1"}, IsComplete: true},
	}}
	b := NewBrowser(src)
	d, err := b.LoadDetail(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != "1" || d.DisplayName != "n" || d.Questions[0] != "Q1" || !d.IsComplete {
		t.Errorf("detail = %+v", d)
	}

	b.LoadDetail(context.Background(), "1")
	if src.loads != 2 {
		t.Errorf("loads = %d, want 2 (no caching)", src.loads)
	}

	if _, err := b.LoadDetail(context.Background(), "9"); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCanResume(t *testing.T) {
	b := NewBrowser(&stubSource{})
	if !b.CanResume(Summary{IsComplete: false}) {
		t.Error("incomplete session should be resumable")
	}
	if b.CanResume(Summary{IsComplete: true}) {
		t.Error("complete session should not be resumable")
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		s    Summary
		want string
	}{
		{Summary{ID: "1", DisplayName: "Mock 1", Timestamp: "2026-10-01 10:00", IsComplete: true}, "2026-10-01 10:00 - Mock 1 (complete)"},
		{Summary{ID: "2"}, "Session 2 (in progress)"},
	}
	for _, tt := range tests {
		if got := tt.s.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}
