package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"agent-chatter/internal/config"
	"agent-chatter/internal/db"
	"agent-chatter/internal/domain"
	"agent-chatter/internal/llm"
	"agent-chatter/internal/repository"
	"agent-chatter/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal(err)
	}

	agentRepo := repository.NewPgAgentRepository(pool)
	conversationRepo := repository.NewPgConversationRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	historyTTL := time.Duration(cfg.RecentMessagesTTL) * time.Second
	historyCache := service.NewMemoryHistoryCache(cfg.RecentMessagesLimit, historyTTL)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err == nil {
			historyCache = service.NewRedisHistoryCache(redisClient, cfg.RecentMessagesLimit, historyTTL, logger)
		}
	}

	llmClient := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxTokens, logger)
	messageSvc := service.NewMessageService(messageRepo, historyCache)
	contextSvc := service.NewCachedContextService(historyCache, messageRepo)
	chatSvc := service.NewChatService(llmClient, messageSvc, contextSvc, logger, cfg.ContextLimit)

	agent, err := pickAgent(ctx, reader, agentRepo)
	if err != nil {
		log.Fatalf("elegir agente: %v", err)
	}

	now := time.Now().UTC()
	conversation := domain.Conversation{
		ID:        uuid.NewString(),
		AgentID:   agent.ID,
		Title:     "cli chat",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := conversationRepo.Create(ctx, conversation); err != nil {
		log.Fatalf("crear conversacion: %v", err)
	}

	fmt.Printf("Conversacion %s con %s. Escribi /salir para terminar.\n\n", conversation.ID, agent.Name)

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/salir" {
			return
		}

		fmt.Printf("%s: ", agent.Name)
		err = chatSvc.StreamTurn(ctx, conversation.ID, agent, line, func(chunk string) error {
			fmt.Print(chunk)
			return nil
		})
		fmt.Println()
		if err != nil {
			fmt.Printf("[error: %v]\n", err)
		}
	}
}

func pickAgent(ctx context.Context, reader *bufio.Reader, repo repository.AgentRepository) (domain.Agent, error) {
	agents, err := repo.List(ctx)
	if err != nil {
		return domain.Agent{}, err
	}
	if len(agents) == 0 {
		return domain.Agent{}, fmt.Errorf("no hay agentes; corre cmd/seed primero")
	}

	fmt.Println("Agentes disponibles:")
	for i, a := range agents {
		fmt.Printf("[%d] %s %s — %s\n", i+1, a.Icon, a.Name, a.Description)
	}
	fmt.Print("Selecciona un agente: ")

	choice, _ := reader.ReadString('\n')
	idx, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil || idx < 1 || idx > len(agents) {
		return domain.Agent{}, fmt.Errorf("opcion invalida")
	}
	return agents[idx-1], nil
}
