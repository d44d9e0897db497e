package mcp

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer   domain.Answer
	err      error
	question string
}

func (m *mockChatService) Ask(_ context.Context, question string) (domain.Answer, error) {
	m.question = question
	return m.answer, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	info  domain.IndexInfo
	infos []domain.IndexInfo
	err   error
}

func (m *mockIndexService) Create(_ context.Context) (domain.IndexInfo, error) {
	return m.info, m.err
}

func (m *mockIndexService) Drop(_ context.Context) error {
	return m.err
}

func (m *mockIndexService) List(_ context.Context) ([]domain.IndexInfo, error) {
	return m.infos, m.err
}

func (m *mockIndexService) Stats(_ context.Context) (domain.IndexInfo, error) {
	return m.info, m.err
}
