package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// IndexStatsInput is the (empty) input schema for the index_stats tool.
type IndexStatsInput struct{}

// IndexStatsOutput is the output schema for the index_stats tool.
type IndexStatsOutput struct {
	Name       string `json:"name"`
	Dimensions int    `json:"dimensions"`
	Metric     string `json:"metric"`
	Count      int    `json:"count"`
}

// errNoIndexService is returned by index tools when no index service is wired.
var errNoIndexService = errors.New("index service not available")

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed documents as context",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Describe the vector index: name, dimensions, metric and entry count",
	}, s.handleIndexStats)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Chat.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	return nil, AskOutput{Answer: answer.Text, Sources: sources}, nil
}

// handleIndexStats handles the index_stats tool invocation.
func (s *Server) handleIndexStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatsInput,
) (*mcp.CallToolResult, IndexStatsOutput, error) {
	if s.ports.Index == nil {
		return nil, IndexStatsOutput{}, errNoIndexService
	}

	info, err := s.ports.Index.Stats(ctx)
	if err != nil {
		return nil, IndexStatsOutput{}, fmt.Errorf("index stats: %w", err)
	}
	return nil, IndexStatsOutput{
		Name:       info.Name,
		Dimensions: info.Dimensions,
		Metric:     info.Metric,
		Count:      info.Count,
	}, nil
}
