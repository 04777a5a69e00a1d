package backend

import (
	"encoding/json"
	"strconv"
)

type Feedback struct {
	Question string `json:"question"`
	Response string `json:"response"`
	Feedback string `json:"feedback"`
}

// UnmarshalJSON also accepts a bare string, which older session records
// store in place of the full item.
func (f *Feedback) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = Feedback{Feedback: s}
		return nil
	}
	type plain Feedback
	return json.Unmarshal(b, (*plain)(f))
}

type Advice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type SubmitResult struct {
	Complete     bool       `json:"complete"`
	NextQuestion string     `json:"next_question"`
	Feedback     []Feedback `json:"feedback"`
	Advice       []Advice   `json:"pre_interview_advice"`
	Error        string     `json:"error,omitempty"`
}

// ID is a session identifier. The service may send it as a number.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	// Only canonical integers go out bare; "007" or "+5" stay strings.
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

type Summary struct {
	ID         ID     `json:"id"`
	Timestamp  string `json:"timestamp"`
	Name       string `json:"name"`
	IsComplete bool   `json:"is_complete"`
}

type Detail struct {
	ID         ID         `json:"id,omitempty"`
	Timestamp  string     `json:"timestamp"`
	Name       string     `json:"name"`
	Questions  []string   `json:"questions"`
	Responses  []string   `json:"responses"`
	Feedback   []Feedback `json:"feedback"`
	Advice     []Advice   `json:"pre_interview_advice,omitempty"`
	IsComplete bool       `json:"is_complete"`
	Error      string     `json:"error,omitempty"`
}

type questionReply struct {
	Question string `json:"question"`
	Error    string `json:"error,omitempty"`
}
