// Package vectorstore holds the similarity and validation helpers shared by
// the vector index backends in its subpackages.
package vectorstore

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Cosine returns the cosine similarity of a and b.
// Zero vectors have similarity 0 with everything.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK sorts hits by descending similarity and keeps the first k.
// Equal scores are ordered by entry ID so results are repeatable.
func TopK(hits []driven.VectorHit, k int) []driven.VectorHit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Entry.ID < hits[j].Entry.ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// SortedSources returns the distinct sources in seen, sorted.
func SortedSources(seen map[string]struct{}) []string {
	sources := make([]string, 0, len(seen))
	for src := range seen {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources
}

// NormaliseSpec fills the default metric and rejects specs no backend can serve.
func NormaliseSpec(spec driven.IndexSpec) (driven.IndexSpec, error) {
	if spec.Name == "" {
		return spec, fmt.Errorf("%w: index name is empty", domain.ErrConfiguration)
	}
	if spec.Dimensions <= 0 {
		return spec, fmt.Errorf("%w: index %q: dimensions must be positive, got %d",
			domain.ErrConfiguration, spec.Name, spec.Dimensions)
	}
	if spec.Metric == "" {
		spec.Metric = domain.MetricCosine
	}
	if spec.Metric != domain.MetricCosine {
		return spec, fmt.Errorf("%w: index %q: unsupported metric %q",
			domain.ErrConfiguration, spec.Name, spec.Metric)
	}
	return spec, nil
}

// CheckDimensions compares an existing index against the requested size.
func CheckDimensions(name string, have, want int) error {
	if have != want {
		return fmt.Errorf("%w: index %q has %d dimensions, embedding model produces %d",
			domain.ErrDimensionMismatch, name, have, want)
	}
	return nil
}

// CheckEntries validates entries before they are written.
func CheckEntries(name string, dims int, entries []domain.IndexedEntry) error {
	for i, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry %d has no id", domain.ErrInvalidInput, i)
		}
		if len(e.Vector) != dims {
			return CheckDimensions(name, dims, len(e.Vector))
		}
	}
	return nil
}

// CheckQuery validates a search vector. A non-positive k is not an error;
// backends answer it with an empty result.
func CheckQuery(name string, dims int, query []float32) error {
	if len(query) != dims {
		return CheckDimensions(name, dims, len(query))
	}
	return nil
}
