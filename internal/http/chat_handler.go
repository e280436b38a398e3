package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"agent-chatter/internal/domain"
	"agent-chatter/internal/repository"
	"agent-chatter/internal/service"
)

// ChatHandler mantiene dependencias para endpoints de conversaciones,
// mensajes y streaming.
type ChatHandler struct {
	logger        *zap.Logger
	agents        repository.AgentRepository
	conversations repository.ConversationRepository
	messages      *service.MessageService
	chatServ      *service.ChatService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(
	logger *zap.Logger,
	agents repository.AgentRepository,
	conversations repository.ConversationRepository,
	messages *service.MessageService,
	chatServ *service.ChatService,
) *ChatHandler {
	return &ChatHandler{
		logger:        logger,
		agents:        agents,
		conversations: conversations,
		messages:      messages,
		chatServ:      chatServ,
	}
}

// CreateConversation maneja POST /conversations.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	var req struct {
		AgentID string `json:"agent_id" binding:"required"`
		Title   string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create conversation request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if _, err := h.agents.GetByID(c.Request.Context(), req.AgentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
			return
		}
		h.logger.Error("get agent failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}

	now := time.Now().UTC()
	conversation := domain.Conversation{
		ID:        uuid.NewString(),
		AgentID:   req.AgentID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.conversations.Create(c.Request.Context(), conversation); err != nil {
		h.logger.Error("create conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}

	c.JSON(http.StatusCreated, conversation)
}

// GetConversation maneja GET /conversations/:id.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	conversation, err := h.conversations.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		h.logger.Error("get conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get conversation"})
		return
	}
	c.JSON(http.StatusOK, conversation)
}

// ListMessages maneja GET /conversations/:id/messages?limit=.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := h.conversations.GetByID(c.Request.Context(), conversationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		h.logger.Error("get conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	messages, err := h.messages.History(c.Request.Context(), conversationID, limit)
	if err != nil {
		h.logger.Error("list messages failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

// PostMessage maneja POST /conversations/:id/messages: anexa un mensaje del
// usuario sin invocar al modelo.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	conversationID := c.Param("id")
	if _, err := h.conversations.GetByID(c.Request.Context(), conversationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		h.logger.Error("get conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not post message"})
		return
	}

	msg, err := h.messages.Append(c.Request.Context(), conversationID, domain.RoleUser, req.Content, nil)
	if err != nil {
		h.logger.Error("append message failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not post message"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// StreamChat maneja POST /agents/:agent_id/conversations/:conversation_id/stream.
// Con ?stream=true (default) responde SSE chunk a chunk; con stream=false
// drena el turno y responde JSON con la respuesta completa.
func (h *ChatHandler) StreamChat(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid stream request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	agent, err := h.agents.GetByID(c.Request.Context(), c.Param("agent_id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
			return
		}
		h.logger.Error("get agent failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not stream"})
		return
	}

	conversation, err := h.conversations.GetByID(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		h.logger.Error("get conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not stream"})
		return
	}
	if conversation.AgentID != agent.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation does not belong to agent"})
		return
	}

	if c.DefaultQuery("stream", "true") == "false" {
		reply, err := h.chatServ.CompleteTurn(c.Request.Context(), conversation.ID, agent, req.Content)
		if err != nil && !errors.Is(err, service.ErrReplyNotPersisted) {
			h.logger.Error("complete turn failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate reply"})
			return
		}
		if err != nil {
			h.logger.Warn("reply delivered without durable record", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"reply": reply})
		return
	}

	h.streamSSE(c, conversation.ID, agent, req.Content)
}

// streamSSE reenvia los chunks del turno como server-sent events. El cierre
// del stream siempre es explicito: "done" limpio, "warning" si la respuesta
// salio pero no quedo persistida, "error" si la generacion fallo.
func (h *ChatHandler) streamSSE(c *gin.Context, conversationID string, agent domain.Agent, content string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	err := h.chatServ.StreamTurn(c.Request.Context(), conversationID, agent, content, func(chunk string) error {
		payload, err := json.Marshal(gin.H{"text": chunk})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})

	switch {
	case err == nil:
		fmt.Fprint(c.Writer, "event: done\ndata: {}\n\n")
	case errors.Is(err, service.ErrReplyNotPersisted):
		h.logger.Warn("reply delivered without durable record", zap.Error(err))
		fmt.Fprint(c.Writer, "event: warning\ndata: {\"error\": \"reply not persisted\"}\n\n")
		fmt.Fprint(c.Writer, "event: done\ndata: {}\n\n")
	default:
		h.logger.Error("stream turn failed", zap.Error(err))
		fmt.Fprint(c.Writer, "event: error\ndata: {\"error\": \"generation failed\"}\n\n")
	}
	c.Writer.Flush()
}
