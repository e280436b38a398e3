package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"agent-chatter/internal/domain"
)

const recentMessagesKeyPrefix = "recent_messages:"

// HistoryCache guarda la cola caliente de mensajes por conversacion. Es una
// proyeccion descartable del repositorio: Push nunca falla hacia el caller y
// Recent devuelve (mensajes, true) solo cuando hay datos utilizables; un
// false significa "no hay nada cacheado" y el caller debe ir al repositorio.
type HistoryCache interface {
	Push(ctx context.Context, conversationID string, message domain.Message)
	Recent(ctx context.Context, conversationID string) ([]domain.Message, bool)
}

// Interfaz minima de redis para poder fakear el cliente en tests.
type redisListClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

type redisHistoryCache struct {
	client redisListClient
	max    int
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisHistoryCache(client *redis.Client, max int, ttl time.Duration, logger *zap.Logger) HistoryCache {
	if client == nil {
		return nil
	}
	if max <= 0 {
		max = 30
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisHistoryCache{client: client, max: max, ttl: ttl, logger: logger}
}

// Push agrega el mensaje al frente de la lista, recorta al maximo configurado
// y renueva el TTL de la lista entera.
func (c *redisHistoryCache) Push(ctx context.Context, conversationID string, message domain.Message) {
	payload, err := json.Marshal(message)
	if err != nil {
		c.logger.Warn("history cache marshal failed", zap.Error(err))
		return
	}

	key := recentMessagesKeyPrefix + conversationID
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	if err := c.client.LPush(ctx, key, payload).Err(); err != nil {
		c.logger.Warn("history cache push failed", zap.String("conversation_id", conversationID), zap.Error(err))
		return
	}
	if err := c.client.LTrim(ctx, key, 0, int64(c.max)-1).Err(); err != nil {
		c.logger.Warn("history cache trim failed", zap.String("conversation_id", conversationID), zap.Error(err))
	}
	if err := c.client.Expire(ctx, key, c.ttl).Err(); err != nil {
		c.logger.Warn("history cache expire failed", zap.String("conversation_id", conversationID), zap.Error(err))
	}
}

// Recent devuelve la lista cacheada en orden cronologico. Cualquier error de
// red o deserializacion degrada a miss: para el caller es indistinguible de
// una cache vacia.
func (c *redisHistoryCache) Recent(ctx context.Context, conversationID string) ([]domain.Message, bool) {
	key := recentMessagesKeyPrefix + conversationID
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	data, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		c.logger.Warn("history cache read failed", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	messages := make([]domain.Message, 0, len(data))
	for _, raw := range data {
		var msg domain.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			c.logger.Warn("history cache entry corrupt", zap.String("conversation_id", conversationID), zap.Error(err))
			return nil, false
		}
		messages = append(messages, msg)
	}

	// La lista se guarda newest-first; el contrato de lectura es oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, true
}

type memoryHistoryEntry struct {
	messages  []domain.Message // newest-first, igual que la lista de redis
	expiresAt time.Time
}

type memoryHistoryCache struct {
	mu      sync.Mutex
	max     int
	ttl     time.Duration
	entries map[string]*memoryHistoryEntry
	now     func() time.Time
}

// NewMemoryHistoryCache es el reemplazo in-process cuando redis no esta
// configurado; mismas cotas de tamano y TTL.
func NewMemoryHistoryCache(max int, ttl time.Duration) HistoryCache {
	if max <= 0 {
		max = 30
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &memoryHistoryCache{
		max:     max,
		ttl:     ttl,
		entries: make(map[string]*memoryHistoryEntry),
		now:     time.Now,
	}
}

func (c *memoryHistoryCache) Push(_ context.Context, conversationID string, message domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[conversationID]
	if !ok || c.now().After(entry.expiresAt) {
		entry = &memoryHistoryEntry{}
		c.entries[conversationID] = entry
	}

	entry.messages = append([]domain.Message{message}, entry.messages...)
	if len(entry.messages) > c.max {
		entry.messages = entry.messages[:c.max]
	}
	entry.expiresAt = c.now().Add(c.ttl)
}

func (c *memoryHistoryCache) Recent(_ context.Context, conversationID string) ([]domain.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[conversationID]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, conversationID)
		return nil, false
	}

	messages := make([]domain.Message, len(entry.messages))
	for i, msg := range entry.messages {
		messages[len(entry.messages)-1-i] = msg
	}
	return messages, true
}
