package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agent-chatter/internal/domain"
	"agent-chatter/internal/repository"
)

// AgentHandler expone el catalogo de agentes.
type AgentHandler struct {
	logger *zap.Logger
	agents repository.AgentRepository
}

func NewAgentHandler(logger *zap.Logger, agents repository.AgentRepository) *AgentHandler {
	return &AgentHandler{logger: logger, agents: agents}
}

// ListAgents maneja GET /agents.
func (h *AgentHandler) ListAgents(c *gin.Context) {
	agents, err := h.agents.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list agents failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list agents"})
		return
	}
	if agents == nil {
		agents = []domain.Agent{}
	}
	c.JSON(http.StatusOK, agents)
}
