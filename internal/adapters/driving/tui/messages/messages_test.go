package messages

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestAnswerReceived_Failed(t *testing.T) {
	ok := AnswerReceived{Question: "q", Answer: domain.Answer{Text: "a"}}
	failed := AnswerReceived{Question: "q", Err: errors.New("boom")}

	assert.False(t, ok.Failed())
	assert.True(t, failed.Failed())
}

func TestMessagesAreTeaMsgs(t *testing.T) {
	msgs := []tea.Msg{
		QuestionAsked{Question: "q"},
		AnswerReceived{},
		ErrorOccurred{Err: errors.New("e")},
		TranscriptCleared{},
		Quit{},
	}

	for _, m := range msgs {
		assert.NotNil(t, m)
	}
}
