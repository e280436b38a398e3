package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"agent-chatter/internal/domain"
)

type AgentRepository interface {
	List(ctx context.Context) ([]domain.Agent, error)
	GetByID(ctx context.Context, id string) (domain.Agent, error)
	Upsert(ctx context.Context, agent domain.Agent) error
}

type PgAgentRepository struct {
	pool *pgxpool.Pool
}

func NewPgAgentRepository(pool *pgxpool.Pool) *PgAgentRepository {
	return &PgAgentRepository{pool: pool}
}

func (r *PgAgentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	const query = `
		SELECT id, name, description, system_prompt, color, icon, created_at, updated_at
		FROM agents
		ORDER BY name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		var a domain.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.SystemPrompt, &a.Color, &a.Icon, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}

	return agents, rows.Err()
}

func (r *PgAgentRepository) GetByID(ctx context.Context, id string) (domain.Agent, error) {
	const query = `
		SELECT id, name, description, system_prompt, color, icon, created_at, updated_at
		FROM agents
		WHERE id = $1
	`

	var a domain.Agent
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&a.ID, &a.Name, &a.Description, &a.SystemPrompt, &a.Color, &a.Icon, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Agent{}, err
	}
	return a, nil
}

// Upsert inserta o actualiza por nombre; lo usa el seed para dejar los
// agentes base idempotentemente.
func (r *PgAgentRepository) Upsert(ctx context.Context, agent domain.Agent) error {
	const query = `
		INSERT INTO agents (id, name, description, system_prompt, color, icon, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO UPDATE SET
			description   = EXCLUDED.description,
			system_prompt = EXCLUDED.system_prompt,
			color         = EXCLUDED.color,
			icon          = EXCLUDED.icon,
			updated_at    = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		agent.ID,
		agent.Name,
		agent.Description,
		agent.SystemPrompt,
		agent.Color,
		agent.Icon,
		agent.CreatedAt,
		agent.UpdatedAt,
	)
	return err
}
