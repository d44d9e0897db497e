package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingChatService.Error(), ErrInvalidPorts.Error())
}

func TestErrMissingChatService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingChatService.Error(), "chat service")
}

func TestValidate_WrapsInvalidPorts(t *testing.T) {
	var p *Ports

	err := p.Validate()

	assert.True(t, errors.Is(err, ErrInvalidPorts))
}
