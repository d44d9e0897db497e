// Package messages defines Bubbletea message types for the chat TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// QuestionAsked is sent when the user submits a question.
type QuestionAsked struct {
	Question string
}

// AnswerReceived carries the outcome of a question back to the model.
type AnswerReceived struct {
	Question string
	Answer   domain.Answer
	Err      error
}

// Failed reports whether the question produced an error.
func (m AnswerReceived) Failed() bool {
	return m.Err != nil
}

// ErrorOccurred signals that an error happened outside a question.
type ErrorOccurred struct {
	Err error
}

// TranscriptCleared signals that the conversation view was reset.
type TranscriptCleared struct{}

// Quit signals the application should exit.
type Quit struct{}
