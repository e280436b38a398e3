package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agent-chatter/internal/domain"
	"agent-chatter/internal/repository"
)

// MessageService encapsula el append durable de mensajes y la lectura del
// historial reciente. El repositorio es la fuente de verdad; la cache solo
// recibe copias de lo que ya quedo (o esta quedando) persistido.
type MessageService struct {
	repo  repository.MessageRepository
	cache HistoryCache
}

var (
	ErrMessageServiceNotConfigured = errors.New("message service not configured")
	ErrMessageInvalidInput         = errors.New("message invalid input")
)

func NewMessageService(repo repository.MessageRepository, cache HistoryCache) *MessageService {
	return &MessageService{repo: repo, cache: cache}
}

// Append asigna id y timestamp, persiste el mensaje (unico camino durable) y
// lo empuja a la cache. Un fallo de cache no afecta el resultado.
func (s *MessageService) Append(ctx context.Context, conversationID, role, content string, metadata map[string]any) (domain.Message, error) {
	if s == nil || s.repo == nil {
		return domain.Message{}, ErrMessageServiceNotConfigured
	}

	conversationID = strings.TrimSpace(conversationID)
	role = strings.TrimSpace(role)
	if conversationID == "" || role == "" || strings.TrimSpace(content) == "" {
		return domain.Message{}, ErrMessageInvalidInput
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("persist message: %w", err)
	}

	if s.cache != nil {
		s.cache.Push(ctx, conversationID, msg)
	}

	return msg, nil
}

// History devuelve los ultimos `limit` mensajes en orden cronologico,
// prefiriendo la ventana cacheada y cayendo al repositorio en un miss.
func (s *MessageService) History(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	if s == nil || s.repo == nil {
		return nil, ErrMessageServiceNotConfigured
	}

	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return []domain.Message{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	if s.cache != nil {
		if cached, ok := s.cache.Recent(ctx, conversationID); ok && len(cached) > 0 {
			if len(cached) > limit {
				cached = cached[len(cached)-limit:]
			}
			return cached, nil
		}
	}

	return s.repo.ListRecent(ctx, conversationID, limit)
}
