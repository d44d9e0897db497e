package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	require.NotNil(t, km)

	bindings := map[string]key.Binding{
		"quit":           km.Quit,
		"send":           km.Send,
		"clear":          km.Clear,
		"scroll up":      km.ScrollUp,
		"scroll down":    km.ScrollDown,
		"toggle sources": km.ToggleSources,
	}
	for name, b := range bindings {
		t.Run(name, func(t *testing.T) {
			assert.NotEmpty(t, b.Keys())
			assert.NotEmpty(t, b.Help().Desc)
		})
	}
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		key     string
		binding key.Binding
		want    bool
	}{
		{"ctrl+c", km.Quit, true},
		{"esc", km.Quit, true},
		{"q", km.Quit, false},
		{"enter", km.Send, true},
		{"ctrl+l", km.Clear, true},
		{"pgup", km.ScrollUp, true},
		{"pgdown", km.ScrollDown, true},
		{"ctrl+s", km.ToggleSources, true},
		{"enter", km.Clear, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.key, tt.binding))
		})
	}
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.ShortHelp()

	require.Len(t, help, 4)
	assert.Equal(t, km.Send.Keys(), help[0].Keys())
	assert.Equal(t, km.Quit.Keys(), help[3].Keys())
}
