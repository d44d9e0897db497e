package status

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Zero(t, bar.Turns())
}

func TestNewBar_NilDependencies(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Bar)
		want    []string
		notWant []string
	}{
		{
			name:  "ready",
			setup: func(*Bar) {},
			want:  []string{"Ready", "enter: send", "esc: quit"},
		},
		{
			name:  "thinking",
			setup: func(b *Bar) { b.SetState(StateThinking) },
			want:  []string{"Thinking..."},
		},
		{
			name: "error with message",
			setup: func(b *Bar) {
				b.SetState(StateError)
				b.SetMessage("index unavailable")
			},
			want: []string{"Error: index unavailable"},
		},
		{
			name:  "error without message",
			setup: func(b *Bar) { b.SetState(StateError) },
			want:  []string{"Error"},
		},
		{
			name: "index and turns",
			setup: func(b *Bar) {
				b.SetIndex("medical-chatbot")
				b.SetTurns(2)
			},
			want:    []string{"index medical-chatbot", "2 questions"},
			notWant: []string{"Ready"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(200)
			tt.setup(bar)

			view := bar.View()

			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, view, w)
			}
		})
	}
}

func TestBar_ViewWidth(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(150)

	assert.Equal(t, 150, lipgloss.Width(bar.View()))
}

func TestBar_ViewFitsOnOneLine(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetIndex("medical-chatbot")
	bar.SetTurns(12)
	tight := lipgloss.Width(bar.renderLeft()) + lipgloss.Width(bar.renderRight()) +
		bar.styles.StatusBar.GetHorizontalFrameSize() + 1

	for _, width := range []int{80, 120, tight} {
		bar.SetWidth(width)

		view := bar.View()

		assert.NotContains(t, view, "\n", "width %d", width)
		assert.Contains(t, view, "esc: quit", "width %d", width)
		assert.Equal(t, width, lipgloss.Width(view), "width %d", width)
	}
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetTurns(3)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Zero(t, bar.Turns())
}
