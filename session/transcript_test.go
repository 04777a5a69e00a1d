package session

import (
	"testing"

	"mentor/backend"
)

func TestEntryLines(t *testing.T) {
	tests := []struct {
		e    Entry
		want string
	}{
		{response("I shipped it"), "Response: I shipped it"},
		{question("Tell me about yourself"), "Current Question: Tell me about yourself"},
		{feedback(0, backend.Feedback{Question: "Q1", Response: "A1", Feedback: "Good"}), "Question 1: \"Q1\"\nResponse: A1\nGood"},
		{feedback(2, backend.Feedback{Feedback: "Score: 4/10."}), "Question 3\nScore: 4/10."},
		{advice(backend.Advice{Title: "T", Description: "D"}), "T: D"},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSummaryText(t *testing.T) {
	fb := []backend.Feedback{{Feedback: "Good"}, {Feedback: "Add detail"}}
	got := summaryText(fb, []backend.Advice{{Title: "T", Description: "D"}})
	want := "Interview complete. Here is your feedback: For question 1: Good. For question 2: Add detail. Before your next interview: T. D"
	if got != want {
		t.Errorf("summaryText =\n%q\nwant\n%q", got, want)
	}
	if got := summaryText(fb[:1], nil); got != "Interview complete. Here is your feedback: For question 1: Good" {
		t.Errorf("without advice = %q", got)
	}
}

func TestStateString(t *testing.T) {
	if ViewingPastSession.String() != "ViewingPastSession" || State(99).String() != "Unknown" {
		t.Error("bad state names")
	}
}
