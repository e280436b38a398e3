package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"agent-chatter/internal/domain"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation domain.Conversation) error
	GetByID(ctx context.Context, id string) (domain.Conversation, error)
}

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

func (r *PgConversationRepository) Create(ctx context.Context, conversation domain.Conversation) error {
	const query = `
		INSERT INTO conversations (id, agent_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	var title interface{}
	if conversation.Title != "" {
		title = conversation.Title
	}

	_, err := r.pool.Exec(ctx, query,
		conversation.ID,
		conversation.AgentID,
		title,
		conversation.CreatedAt,
		conversation.UpdatedAt,
	)
	return err
}

func (r *PgConversationRepository) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	const query = `
		SELECT id, agent_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	var conv domain.Conversation
	var title *string
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&conv.ID, &conv.AgentID, &title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return domain.Conversation{}, err
	}
	if title != nil {
		conv.Title = *title
	}
	return conv, nil
}
