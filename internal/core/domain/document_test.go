package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawDocument_Minimal(t *testing.T) {
	doc := RawDocument{
		Content:  "page text",
		Source:   "data/book.pdf",
		Page:     3,
		Metadata: map[string]string{"total_pages": "10"},
	}

	minimal := doc.Minimal()

	assert.Equal(t, RawDocument{Content: "page text", Source: "data/book.pdf"}, minimal)
	assert.Equal(t, minimal, minimal.Minimal())
	assert.Equal(t, 3, doc.Page, "original must not be modified")
}
