package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{}, "test")
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}}, "test")
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingChatService)
	assert.NoError(t, (&Ports{Chat: &mockChatService{}}).Validate())
	assert.NoError(t, (&Ports{Chat: &mockChatService{}, Index: &mockIndexService{}}).Validate())
}

func TestServer_InMemoryClient(t *testing.T) {
	ctx := context.Background()
	chat := &mockChatService{answer: domain.Answer{Text: "Paris.", Sources: []string{"facts.pdf"}}}
	server, err := NewServer(&Ports{Chat: chat}, "test")
	require.NoError(t, err)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"ask", "index_stats"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "ask",
		Arguments: map[string]any{"question": "What is the capital of France?"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "What is the capital of France?", chat.question)
}
