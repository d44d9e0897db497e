// Package qdrant provides a vector index backend on a Qdrant server,
// spoken to over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/vectorstore"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

const (
	// DefaultURL is the default Qdrant REST endpoint.
	DefaultURL = "http://localhost:6333"

	// DefaultTimeout bounds each request to the server.
	DefaultTimeout = 15 * time.Second

	// Payload keys written with every point.
	payloadID      = "entry_id"
	payloadContent = "content"
	payloadSource  = "source"

	scrollPageSize = 256
)

// Ensure Store and Index implement the interfaces.
var (
	_ driven.VectorStore = (*Store)(nil)
	_ driven.VectorIndex = (*Index)(nil)
)

// Config holds Qdrant connection settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Store is a Qdrant-backed implementation of driven.VectorStore.
// Each index is a Qdrant collection using cosine distance.
type Store struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewStore creates a Qdrant store. No request is made until first use.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("%w: qdrant url %q: %w", domain.ErrConfiguration, cfg.URL, err)
	}

	return &Store{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type collectionInfo struct {
	PointsCount int `json:"points_count"`
	Config      struct {
		Params struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

// Open returns a handle to the named collection, creating it if spec.AutoCreate is set.
func (s *Store) Open(ctx context.Context, spec driven.IndexSpec) (driven.VectorIndex, error) {
	spec, err := vectorstore.NormaliseSpec(spec)
	if err != nil {
		return nil, err
	}

	info, err := s.collection(ctx, spec.Name)
	if errors.Is(err, domain.ErrIndexNotFound) && spec.AutoCreate {
		if err := s.Create(ctx, spec); err != nil {
			return nil, err
		}
		info, err = s.collection(ctx, spec.Name)
	}
	if err != nil {
		return nil, err
	}

	dims := info.Config.Params.Vectors.Size
	if err := vectorstore.CheckDimensions(spec.Name, dims, spec.Dimensions); err != nil {
		return nil, err
	}
	return &Index{store: s, name: spec.Name, dims: dims}, nil
}

// Create creates the named collection. An existing collection with the
// same dimensions is left as is.
func (s *Store) Create(ctx context.Context, spec driven.IndexSpec) error {
	spec, err := vectorstore.NormaliseSpec(spec)
	if err != nil {
		return err
	}

	info, err := s.collection(ctx, spec.Name)
	if err == nil {
		return vectorstore.CheckDimensions(spec.Name, info.Config.Params.Vectors.Size, spec.Dimensions)
	}
	if !errors.Is(err, domain.ErrIndexNotFound) {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     spec.Dimensions,
			"distance": "Cosine",
		},
	}
	logger.Debug("qdrant: creating collection %s (%d dims)", spec.Name, spec.Dimensions)
	return s.do(ctx, http.MethodPut, s.collectionPath(spec.Name), body, nil)
}

// Drop deletes the named collection.
func (s *Store) Drop(ctx context.Context, name string) error {
	if _, err := s.collection(ctx, name); err != nil {
		return err
	}
	return s.do(ctx, http.MethodDelete, s.collectionPath(name), nil, nil)
}

// List returns all collections sorted by name.
func (s *Store) List(ctx context.Context) ([]domain.IndexInfo, error) {
	var resp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, "/collections", nil, &resp); err != nil {
		return nil, err
	}

	infos := make([]domain.IndexInfo, 0, len(resp.Result.Collections))
	for _, c := range resp.Result.Collections {
		info, err := s.collection(ctx, c.Name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, domain.IndexInfo{
			Name:       c.Name,
			Dimensions: info.Config.Params.Vectors.Size,
			Metric:     strings.ToLower(info.Config.Params.Vectors.Distance),
			Count:      info.PointsCount,
		})
	}
	sort.Slice(infos, func(a, b int) bool { return infos[a].Name < infos[b].Name })
	return infos, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Store) collection(ctx context.Context, name string) (*collectionInfo, error) {
	var resp struct {
		Result collectionInfo `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, s.collectionPath(name), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

func (s *Store) collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

// do sends a JSON request and decodes the JSON response into out.
// A 404 maps to ErrIndexNotFound; transport failures and other non-2xx
// statuses map to ErrIndexUnavailable.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: qdrant: build request: %w", domain.ErrConfiguration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: qdrant %s %s: %w", domain.ErrIndexUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, strings.TrimPrefix(path, "/collections/"))
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: qdrant %s %s: %s: %s",
			domain.ErrIndexUnavailable, method, path, resp.Status, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: qdrant: decode response: %w", domain.ErrIndexUnavailable, err)
		}
	}
	return nil
}

// Index is a handle to one Qdrant collection.
type Index struct {
	store *Store
	name  string
	dims  int
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert adds or replaces points by ID and waits for the write to apply.
// Entry IDs must be UUIDs, which Qdrant requires for string point IDs.
func (i *Index) Upsert(ctx context.Context, entries []domain.IndexedEntry) error {
	if err := vectorstore.CheckEntries(i.name, i.dims, entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	points := make([]point, len(entries))
	for n, e := range entries {
		points[n] = point{
			ID:     e.ID,
			Vector: e.Vector,
			Payload: map[string]any{
				payloadID:      e.ID,
				payloadContent: e.Content,
				payloadSource:  e.Source,
			},
		}
	}
	body := map[string]any{"points": points}
	return i.store.do(ctx, http.MethodPut, i.store.collectionPath(i.name)+"/points?wait=true", body, nil)
}

// Search returns the k points most similar to query.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := vectorstore.CheckQuery(i.name, i.dims, query); err != nil {
		return nil, err
	}
	if k <= 0 {
		if _, err := i.store.collection(ctx, i.name); err != nil {
			return nil, err
		}
		return []driven.VectorHit{}, nil
	}

	req := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": true,
		"with_vector":  true,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
			Vector  []float32      `json:"vector"`
		} `json:"result"`
	}
	if err := i.store.do(ctx, http.MethodPost, i.store.collectionPath(i.name)+"/points/search", req, &resp); err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		e := domain.IndexedEntry{Vector: r.Vector}
		e.ID, _ = r.Payload[payloadID].(string)
		if e.ID == "" {
			e.ID = fmt.Sprint(r.ID)
		}
		e.Content, _ = r.Payload[payloadContent].(string)
		e.Source, _ = r.Payload[payloadSource].(string)
		hits = append(hits, driven.VectorHit{Entry: e, Similarity: r.Score})
	}
	return hits, nil
}

// DeleteBySource removes the points whose source payload equals source.
func (i *Index) DeleteBySource(ctx context.Context, source string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": payloadSource, "match": map[string]any{"value": source}},
			},
		},
	}
	return i.store.do(ctx, http.MethodPost, i.store.collectionPath(i.name)+"/points/delete?wait=true", body, nil)
}

// Count returns the exact number of points in the collection.
func (i *Index) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"exact": true}
	if err := i.store.do(ctx, http.MethodPost, i.store.collectionPath(i.name)+"/points/count", body, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Sources scrolls through the collection and returns the distinct
// source payloads, sorted.
func (i *Index) Sources(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var offset any
	for {
		req := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": []string{payloadSource},
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := i.store.do(ctx, http.MethodPost, i.store.collectionPath(i.name)+"/points/scroll", req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			if src, ok := p.Payload[payloadSource].(string); ok {
				seen[src] = struct{}{}
			}
		}
		if resp.Result.NextPageOffset == nil {
			return vectorstore.SortedSources(seen), nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// Name returns the collection name.
func (i *Index) Name() string {
	return i.name
}

// Dimensions returns the vector length.
func (i *Index) Dimensions() int {
	return i.dims
}
