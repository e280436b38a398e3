package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"agent-chatter/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	ListRecent(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

// Create inserta el mensaje y sube el updated_at de la conversacion en una
// sola transaccion: el append es atomico visto desde afuera.
func (r *PgMessageRepository) Create(ctx context.Context, message domain.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO messages (id, conversation_id, role, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	metadata := message.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err = tx.Exec(ctx, insert,
		message.ID,
		message.ConversationID,
		message.Role,
		message.Content,
		metadata,
		message.CreatedAt,
	)
	if err != nil {
		return err
	}

	const touch = `UPDATE conversations SET updated_at = $2 WHERE id = $1`
	if _, err = tx.Exec(ctx, touch, message.ConversationID, message.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListRecent devuelve los ultimos `limit` mensajes de la conversacion en orden
// cronologico. El orden total es created_at con desempate por seq (orden de
// insercion), asi dos appends concurrentes no se reordenan entre lecturas.
func (r *PgMessageRepository) ListRecent(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	const query = `
		SELECT id, conversation_id, role, content, metadata, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.Metadata, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// La query trae newest-first; el contrato es oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
