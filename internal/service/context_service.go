package service

import (
	"context"
	"fmt"
	"strings"

	"agent-chatter/internal/domain"
	"agent-chatter/internal/llm"
	"agent-chatter/internal/repository"
)

// ContextService define contrato para recuperar contexto conversacional.
type ContextService interface {
	GetContext(ctx context.Context, conversationID string, limit int) ([]llm.ChatMessage, error)
}

// CachedContextService arma el contexto de un turno con la ventana caliente y
// cae al repositorio cuando la cache no tiene nada. Es read-through sin
// repoblado: un miss nunca escribe en la cache, eso lo hace solo el append.
type CachedContextService struct {
	cache       HistoryCache
	messageRepo repository.MessageRepository
}

func NewCachedContextService(cache HistoryCache, messageRepo repository.MessageRepository) *CachedContextService {
	return &CachedContextService{cache: cache, messageRepo: messageRepo}
}

func (s *CachedContextService) GetContext(ctx context.Context, conversationID string, limit int) ([]llm.ChatMessage, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var history []domain.Message
	if s.cache != nil {
		if cached, ok := s.cache.Recent(ctx, conversationID); ok && len(cached) > 0 {
			history = cached
		}
	}
	if history == nil {
		messages, err := s.messageRepo.ListRecent(ctx, conversationID, limit)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		history = messages
	}

	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	// Al modelo solo entran turnos user/assistant con contenido.
	formatted := make([]llm.ChatMessage, 0, len(history))
	for _, m := range history {
		if (m.Role == domain.RoleUser || m.Role == domain.RoleAssistant) && m.Content != "" {
			formatted = append(formatted, llm.ChatMessage{Role: m.Role, Content: m.Content})
		}
	}
	return formatted, nil
}
