// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// ErrNoChatService is returned when a question is asked without a chat service.
var ErrNoChatService = errors.New("chat service not available")

// chromeHeight is the number of rows used by the header, input and status bar.
const chromeHeight = 7

// Turn is one question and its outcome.
type Turn struct {
	Question string
	Answer   domain.Answer
	Err      error
}

// View is the chat view: a scrolling transcript above a question input.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.ChatInput
	statusbar *status.Bar
	viewport  viewport.Model
	spinner   spinner.Model

	chat driving.ChatService
	ctx  context.Context

	turns       []Turn
	pending     string
	thinking    bool
	showSources bool

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, chat driving.ChatService, indexName string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetIndex(indexName)

	return &View{
		styles:      s,
		keymap:      km,
		input:       input.NewChatInput(s),
		statusbar:   bar,
		viewport:    viewport.New(80, 24-chromeHeight),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.BotLabel)),
		chat:        chat,
		ctx:         context.Background(),
		showSources: true,
		width:       80,
		height:      24,
	}
}

// WithContext sets the context passed to the chat service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, v.input.Focus()

	case messages.ErrorOccurred:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(describe(msg.Err))
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keymap.Quit):
		return v, tea.Quit

	case keymap.Matches(key, v.keymap.Clear):
		v.Clear()
		return v, func() tea.Msg { return messages.TranscriptCleared{} }

	case keymap.Matches(key, v.keymap.ToggleSources):
		v.showSources = !v.showSources
		v.refresh()
		return v, nil

	case keymap.Matches(key, v.keymap.ScrollUp), keymap.Matches(key, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case keymap.Matches(key, v.keymap.Send):
		return v, v.submit()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question unless one is already in flight.
func (v *View) submit() tea.Cmd {
	if v.thinking {
		return nil
	}
	question := strings.TrimSpace(v.input.Value())
	if question == "" {
		return nil
	}

	v.pending = question
	v.thinking = true
	v.input.Reset()
	v.statusbar.SetState(status.StateThinking)
	v.refresh()

	return tea.Batch(v.ask(question), v.spinner.Tick)
}

func (v *View) ask(question string) tea.Cmd {
	return func() tea.Msg {
		if v.chat == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoChatService}
		}
		answer, err := v.chat.Ask(v.ctx, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.turns = append(v.turns, Turn{Question: msg.Question, Answer: msg.Answer, Err: msg.Err})
	v.pending = ""
	v.thinking = false
	v.statusbar.SetTurns(len(v.turns))
	if msg.Failed() {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(describe(msg.Err))
	} else {
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage("")
	}
	v.refresh()
}

// refresh re-renders the transcript and keeps the newest turn in view.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 && !v.thinking {
		return v.styles.Muted.Render("Ask a question about your documents.")
	}

	wrap := v.styles.Message.Width(max(v.width-6, 20))
	blocks := make([]string, 0, len(v.turns)+1)
	for _, turn := range v.turns {
		lines := []string{
			v.styles.UserLabel.Render("You: ") + wrap.Render(turn.Question),
		}
		if turn.Err != nil {
			lines = append(lines, v.styles.BotLabel.Render("Bot: ")+v.styles.Error.Render(describe(turn.Err)))
		} else {
			lines = append(lines, v.styles.BotLabel.Render("Bot: ")+wrap.Render(turn.Answer.Text))
			if v.showSources && len(turn.Answer.Sources) > 0 {
				lines = append(lines, v.styles.Sources.Render("     Sources: "+strings.Join(turn.Answer.Sources, ", ")))
			}
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	if v.thinking {
		blocks = append(blocks,
			v.styles.UserLabel.Render("You: ")+wrap.Render(v.pending)+"\n"+
				v.styles.BotLabel.Render("Bot: ")+v.spinner.View())
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("ragchat"),
		"",
		v.viewport.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.viewport.Width = width
	v.viewport.Height = max(height-chromeHeight, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Clear empties the transcript.
func (v *View) Clear() {
	v.turns = nil
	v.statusbar.Clear()
	v.refresh()
}

// Turns returns the completed turns, oldest first.
func (v *View) Turns() []Turn {
	return v.turns
}

// Thinking reports whether a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// ShowSources reports whether answer sources are displayed.
func (v *View) ShowSources() bool {
	return v.showSources
}

// Input returns the current input text.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput sets the input text.
func (v *View) SetInput(s string) {
	v.input.SetValue(s)
}

// Ready returns whether the view has dimensions.
func (v *View) Ready() bool {
	return v.ready
}

// describe turns a pipeline error into a short message for the transcript.
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "Please type a question."
	case errors.Is(err, domain.ErrIndexNotFound):
		return "The index does not exist yet. Run 'ragchat ingest' first."
	case errors.Is(err, domain.ErrIndexUnavailable):
		return "The vector index is not reachable."
	case errors.Is(err, domain.ErrGeneration):
		return "The language model failed to answer."
	case errors.Is(err, domain.ErrModelUnavailable):
		return "The embedding model is not available."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was cancelled."
	default:
		return err.Error()
	}
}
