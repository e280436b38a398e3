package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"agent-chatter/internal/config"
	"agent-chatter/internal/db"
	apihttp "agent-chatter/internal/http"
	"agent-chatter/internal/llm"
	"agent-chatter/internal/repository"
	"agent-chatter/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	agentRepo := repository.NewPgAgentRepository(pool)
	conversationRepo := repository.NewPgConversationRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	// Sin redis configurado (o sin ping) la ventana caliente vive in-process.
	historyTTL := time.Duration(cfg.RecentMessagesTTL) * time.Second
	historyCache := service.NewMemoryHistoryCache(cfg.RecentMessagesLimit, historyTTL)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			historyCache = service.NewRedisHistoryCache(redisClient, cfg.RecentMessagesLimit, historyTTL, logger)
		}
		cancel()
	}

	llmClient := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxTokens, logger)
	messageSvc := service.NewMessageService(messageRepo, historyCache)
	contextSvc := service.NewCachedContextService(historyCache, messageRepo)
	chatSvc := service.NewChatService(llmClient, messageSvc, contextSvc, logger, cfg.ContextLimit)

	agentHandler := apihttp.NewAgentHandler(logger, agentRepo)
	chatHandler := apihttp.NewChatHandler(logger, agentRepo, conversationRepo, messageSvc, chatSvc)
	router := apihttp.NewRouter(logger, cfg.CORSOrigins, agentHandler, chatHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
