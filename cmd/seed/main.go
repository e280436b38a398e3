package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"agent-chatter/internal/config"
	"agent-chatter/internal/db"
	"agent-chatter/internal/domain"
	"agent-chatter/internal/repository"
)

// Agentes base del producto; el upsert por nombre hace el seed idempotente.
var agents = []domain.Agent{
	{
		Name:        "Travel Agent",
		Description: "Trip planning, destinations, itineraries, and travel advice.",
		SystemPrompt: "You are an expert Travel Assistant with extensive knowledge of destinations, " +
			"transportation, accommodations, and travel planning worldwide. Help with itineraries, " +
			"bookings, budgets, visas and safety advice. Be concrete and practical.",
		Color: "blue",
		Icon:  "🌍",
	},
	{
		Name:        "Construction Agent",
		Description: "Construction planning, materials, safety, and best practices.",
		SystemPrompt: "You are an expert Construction Consultant with deep knowledge of building " +
			"practices, materials, regulations, and project management. Prioritize safety and " +
			"code compliance in every answer.",
		Color: "orange",
		Icon:  "🏗️",
	},
	{
		Name:        "Finance Agent",
		Description: "Personal finance, budgeting, investing, and planning.",
		SystemPrompt: "You are an expert Financial Advisor with comprehensive knowledge of personal " +
			"finance, investing, and financial planning. Explain tradeoffs clearly and never " +
			"present advice as guaranteed outcomes.",
		Color: "green",
		Icon:  "💰",
	},
	{
		Name:        "General Assistant",
		Description: "General-purpose help across many topics.",
		SystemPrompt: "You are a helpful and knowledgeable AI Assistant capable of assisting with a " +
			"wide variety of tasks and questions. Be clear, direct and honest about uncertainty.",
		Color: "purple",
		Icon:  "🤖",
	},
}

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal(err)
	}

	repo := repository.NewPgAgentRepository(pool)
	now := time.Now().UTC()
	for _, agent := range agents {
		agent.ID = uuid.NewString()
		agent.CreatedAt = now
		agent.UpdatedAt = now
		if err := repo.Upsert(ctx, agent); err != nil {
			log.Fatalf("seed agent %q: %v", agent.Name, err)
		}
	}

	log.Printf("seeded %d agents", len(agents))
}
