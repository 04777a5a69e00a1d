package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const fakeCookie = "session"

// FakeService is an in-memory stand-in for the question service. It keeps
// the live interview in a cookie the way the real service does.
type FakeService struct {
	questions []string
	advice    []Advice

	mu       sync.Mutex
	records  []*fakeRecord
	nextID   int
	failNext map[string]int
	calls    map[string]int
	now      func() time.Time
}

type fakeRecord struct {
	id        ID
	started   time.Time
	responses []string
}

func NewFakeService(questions []string, advice []Advice) *FakeService {
	return &FakeService{
		questions: questions,
		advice:    advice,
		failNext:  map[string]int{},
		calls:     map[string]int{},
		now:       time.Now,
	}
}

// FailNext makes the next n requests whose path starts with prefix
// answer 500.
func (f *FakeService) FailNext(prefix string, n int) {
	f.mu.Lock()
	f.failNext[prefix] += n
	f.mu.Unlock()
}

// Calls counts requests per route pattern.
func (f *FakeService) Calls(pattern string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[pattern]
}

func (f *FakeService) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /reset", f.reset)
	mux.HandleFunc("POST /submit_response", f.submit)
	mux.HandleFunc("GET /history", f.history)
	mux.HandleFunc("GET /history/{id}", f.detail)
	mux.HandleFunc("POST /resume/{id}", f.resume)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		f.mu.Lock()
		f.calls[pattern]++
		failing := ""
		for prefix, n := range f.failNext {
			if n > 0 && strings.HasPrefix(r.URL.Path, prefix) {
				f.failNext[prefix]--
				failing = prefix
				break
			}
		}
		f.mu.Unlock()
		if failing != "" {
			http.Error(w, "injected failure", http.StatusInternalServerError)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (f *FakeService) find(id ID) *fakeRecord {
	for _, r := range f.records {
		if r.id == id {
			return r
		}
	}
	return nil
}

func (f *FakeService) live(r *http.Request) *fakeRecord {
	c, err := r.Cookie(fakeCookie)
	if err != nil {
		return nil
	}
	return f.find(ID(c.Value))
}

func (f *FakeService) complete(rec *fakeRecord) bool {
	return len(rec.responses) >= len(f.questions)
}

func (f *FakeService) reset(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rec := &fakeRecord{id: ID(strconv.Itoa(f.nextID)), started: f.now()}
	f.records = append(f.records, rec)
	http.SetCookie(w, &http.Cookie{Name: fakeCookie, Value: string(rec.id), Path: "/"})
	writeJSON(w, http.StatusOK, questionReply{Question: f.questions[0]})
}

func (f *FakeService) submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcription string `json:"transcription"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.live(r)
	if rec == nil || f.complete(rec) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no interview in progress"})
		return
	}
	rec.responses = append(rec.responses, req.Transcription)
	if !f.complete(rec) {
		writeJSON(w, http.StatusOK, SubmitResult{NextQuestion: f.questions[len(rec.responses)]})
		return
	}
	writeJSON(w, http.StatusOK, SubmitResult{
		Complete: true,
		Feedback: f.feedback(rec),
		Advice:   f.advice,
	})
}

func (f *FakeService) feedback(rec *fakeRecord) []Feedback {
	out := make([]Feedback, len(rec.responses))
	for i, resp := range rec.responses {
		out[i] = Feedback{
			Question: f.questions[i],
			Response: resp,
			Feedback: fmt.Sprintf("Score: %d/10.", min(10, len(strings.Fields(resp)))),
		}
	}
	return out
}

func (f *FakeService) name(rec *fakeRecord) string {
	return "Interview " + string(rec.id)
}

func (f *FakeService) history(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Summary, 0, len(f.records))
	for i := len(f.records) - 1; i >= 0; i-- {
		rec := f.records[i]
		out = append(out, Summary{
			ID:         rec.id,
			Timestamp:  rec.started.Format(time.RFC3339),
			Name:       f.name(rec),
			IsComplete: f.complete(rec),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeService) detail(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.find(ID(r.PathValue("id")))
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Session not found"})
		return
	}
	d := Detail{
		ID:         rec.id,
		Timestamp:  rec.started.Format(time.RFC3339),
		Name:       f.name(rec),
		Questions:  f.questions[:min(len(f.questions), len(rec.responses)+1)],
		Responses:  rec.responses,
		IsComplete: f.complete(rec),
	}
	if d.IsComplete {
		d.Feedback = f.feedback(rec)
		d.Advice = f.advice
	}
	writeJSON(w, http.StatusOK, d)
}

func (f *FakeService) resume(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.find(ID(r.PathValue("id")))
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Session not found"})
		return
	}
	if f.complete(rec) {
		writeJSON(w, http.StatusOK, map[string]string{"error": "Session already complete"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: fakeCookie, Value: string(rec.id), Path: "/"})
	writeJSON(w, http.StatusOK, questionReply{Question: f.questions[len(rec.responses)]})
}
