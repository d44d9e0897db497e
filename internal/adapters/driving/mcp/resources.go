package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for ragchat resources.
	uriScheme = "ragchat://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "indexes",
		Name:        "indexes",
		Description: "Vector indexes on the configured backend",
		MIMEType:    "application/json",
	}, s.handleIndexesResource)
}

// handleIndexesResource lists the indexes on the backend.
func (s *Server) handleIndexesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	text := "[]"
	if s.ports.Index != nil {
		infos, err := s.ports.Index.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing indexes: %w", err)
		}

		type indexInfo struct {
			Name       string `json:"name"`
			Dimensions int    `json:"dimensions"`
			Metric     string `json:"metric"`
			Count      int    `json:"count"`
		}
		out := make([]indexInfo, len(infos))
		for i, info := range infos {
			out[i] = indexInfo{Name: info.Name, Dimensions: info.Dimensions, Metric: info.Metric, Count: info.Count}
		}

		data, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encoding indexes: %w", err)
		}
		text = string(data)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		}},
	}, nil
}
