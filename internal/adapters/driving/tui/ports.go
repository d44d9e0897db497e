// Package tui provides an interactive terminal chat for ragchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Chat answers questions.
	Chat driving.ChatService

	// IndexName is shown in the status bar.
	IndexName string
}

// NewPorts creates a new Ports aggregate.
func NewPorts(chat driving.ChatService, indexName string) *Ports {
	return &Ports{Chat: chat, IndexName: indexName}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: ports are nil", ErrInvalidPorts)
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
