package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func newTestApp(t *testing.T, chat *MockChatService) *App {
	t.Helper()
	app, err := NewApp(NewPorts(chat, "medical-chatbot"))
	require.NoError(t, err)
	return app
}

func TestNewApp_Success(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	assert.NotNil(t, app.ChatView())
	assert.NoError(t, app.Err())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingChatService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	assert.NotNil(t, app.Init())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Nil(t, cmd)
	assert.Equal(t, app, model)
	assert.Equal(t, 100, app.width)
	assert.True(t, app.ChatView().Ready())
}

func TestApp_View(t *testing.T) {
	app := newTestApp(t, &MockChatService{})
	assert.Equal(t, "Initialising...", app.View())

	app.SetDimensions(100, 30)

	view := app.View()
	assert.Contains(t, view, "ragchat")
	assert.Contains(t, view, "medical-chatbot")
}

func TestApp_AskRoundTrip(t *testing.T) {
	var asked string
	app := newTestApp(t, &MockChatService{
		AskFunc: func(_ context.Context, q string) (domain.Answer, error) {
			asked = q
			return domain.Answer{Text: "Paris."}, nil
		},
	})
	app.SetDimensions(100, 30)

	app.Update(messages.AnswerReceived{Question: "capital?", Answer: domain.Answer{Text: "Paris."}})

	require.Len(t, app.ChatView().Turns(), 1)
	assert.Contains(t, app.View(), "Paris.")
	assert.Empty(t, asked, "AnswerReceived does not call the service")
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, &MockChatService{})
	want := errors.New("boom")

	app.Update(messages.ErrorOccurred{Err: want})

	assert.Equal(t, want, app.Err())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
