package session

import (
	"fmt"
	"strings"

	"mentor/backend"
)

type EntryKind int

const (
	ResponseEntry EntryKind = iota
	QuestionEntry
	FeedbackEntry
	AdviceEntry
)

// Entry is one item of the transcript log.
type Entry struct {
	Kind EntryKind
	Text string

	// feedback items
	Index    int
	Question string
	Response string

	// advice items
	Title string
}

func response(text string) Entry { return Entry{Kind: ResponseEntry, Text: text} }

func question(text string) Entry { return Entry{Kind: QuestionEntry, Text: text} }

func feedback(i int, f backend.Feedback) Entry {
	return Entry{Kind: FeedbackEntry, Index: i + 1, Question: f.Question, Response: f.Response, Text: f.Feedback}
}

func advice(a backend.Advice) Entry {
	return Entry{Kind: AdviceEntry, Title: a.Title, Text: a.Description}
}

// Lines renders the entry for display.
func (e Entry) Lines() []string {
	switch e.Kind {
	case ResponseEntry:
		return []string{"Response: " + e.Text}
	case QuestionEntry:
		return []string{"Current Question: " + e.Text}
	case FeedbackEntry:
		var lines []string
		if e.Question != "" {
			lines = append(lines, fmt.Sprintf("Question %d: %q", e.Index, e.Question))
		} else {
			lines = append(lines, fmt.Sprintf("Question %d", e.Index))
		}
		if e.Response != "" {
			lines = append(lines, "Response: "+e.Response)
		}
		return append(lines, e.Text)
	case AdviceEntry:
		return []string{e.Title + ": " + e.Text}
	}
	return []string{e.Text}
}

func (e Entry) String() string { return strings.Join(e.Lines(), "\n") }

// Render joins a transcript top to bottom.
func Render(entries []Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, "\n")
}

// summaryText is what gets narrated when an interview completes.
func summaryText(items []backend.Feedback, tips []backend.Advice) string {
	parts := make([]string, len(items))
	for i, f := range items {
		parts[i] = fmt.Sprintf("For question %d: %s", i+1, f.Feedback)
	}
	text := "Interview complete. Here is your feedback: " + strings.Join(parts, ". ")
	if len(tips) == 0 {
		return text
	}
	tipParts := make([]string, len(tips))
	for i, a := range tips {
		tipParts[i] = a.Title + ". " + a.Description
	}
	return text + ". Before your next interview: " + strings.Join(tipParts, ". ")
}
