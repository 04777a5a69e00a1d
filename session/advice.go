package session

import "mentor/backend"

// DefaultAdvice is shown with final feedback when the service sends none.
var DefaultAdvice = []backend.Advice{
	{Title: "Research the company", Description: "Know its products, recent news and how the role fits its plans."},
	{Title: "Prepare stories", Description: "Have two or three concrete examples ready, told as situation, action and result."},
	{Title: "Ask questions", Description: "Bring questions about the team and the work that show you have thought about the job."},
}
