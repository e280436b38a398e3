package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"agent-chatter/internal/domain"
	"agent-chatter/internal/llm"
)

var (
	// ErrGenerationFailed envuelve un fallo del stream del modelo. Se emite
	// recien despues de persistir el parcial acumulado.
	ErrGenerationFailed = errors.New("llm stream failed")
	// ErrReplyNotPersisted indica que el caller ya recibio la respuesta por
	// streaming pero el registro durable fallo.
	ErrReplyNotPersisted = errors.New("assistant reply not persisted")
)

// ChatService orquesta un turno conversacional: arma el contexto, persiste el
// mensaje del usuario, streamea la respuesta del modelo chunk a chunk y
// persiste el texto acumulado cuando el stream termina.
type ChatService struct {
	llmClient    llm.Client
	messages     *MessageService
	contextSvc   ContextService
	logger       *zap.Logger
	contextLimit int
}

func NewChatService(llmClient llm.Client, messages *MessageService, contextSvc ContextService, logger *zap.Logger, contextLimit int) *ChatService {
	if contextLimit <= 0 {
		contextLimit = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		llmClient:    llmClient,
		messages:     messages,
		contextSvc:   contextSvc,
		logger:       logger,
		contextLimit: contextLimit,
	}
}

// StreamTurn ejecuta un turno completo entregando cada chunk via onChunk.
// Un retorno nil significa stream completo y persistido; ErrGenerationFailed
// significa stream cortado con el parcial ya persistido; ErrReplyNotPersisted
// significa respuesta entregada pero sin registro durable. Si onChunk falla
// (caller desconectado) se deja de reenviar pero el turno termina igual.
func (s *ChatService) StreamTurn(ctx context.Context, conversationID string, agent domain.Agent, userText string, onChunk func(chunk string) error) error {
	// El contexto se arma antes de anexar el mensaje nuevo: el turno actual
	// no participa de su propio contexto.
	history, err := s.contextSvc.GetContext(ctx, conversationID, s.contextLimit)
	if err != nil {
		return fmt.Errorf("assemble context: %w", err)
	}

	// Sin registro durable del mensaje del usuario no hay llamada al modelo.
	if _, err := s.messages.Append(ctx, conversationID, domain.RoleUser, userText, nil); err != nil {
		return fmt.Errorf("persist user message: %w", err)
	}

	var reply strings.Builder
	forwarding := true
	streamErr := s.llmClient.Stream(ctx, userText, agent.SystemPrompt, history, func(chunk string) error {
		reply.WriteString(chunk)
		if forwarding {
			if err := onChunk(chunk); err != nil {
				forwarding = false
				s.logger.Warn("chunk forwarding stopped",
					zap.String("conversation_id", conversationID),
					zap.Error(err),
				)
			}
		}
		return nil
	})

	if reply.Len() > 0 {
		// La persistencia no se cancela por desconexion del caller.
		persistCtx := context.WithoutCancel(ctx)
		if _, err := s.messages.Append(persistCtx, conversationID, domain.RoleAssistant, reply.String(), nil); err != nil {
			if streamErr == nil {
				return fmt.Errorf("%w: %v", ErrReplyNotPersisted, err)
			}
			s.logger.Warn("assistant reply not persisted after stream failure",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}
	}

	if streamErr != nil {
		return fmt.Errorf("%w: %v", ErrGenerationFailed, streamErr)
	}
	return nil
}

// CompleteTurn es la variante sin streaming: drena el stream internamente y
// devuelve el texto concatenado, con las mismas garantias de persistencia.
func (s *ChatService) CompleteTurn(ctx context.Context, conversationID string, agent domain.Agent, userText string) (string, error) {
	var reply strings.Builder
	err := s.StreamTurn(ctx, conversationID, agent, userText, func(chunk string) error {
		reply.WriteString(chunk)
		return nil
	})
	return reply.String(), err
}
