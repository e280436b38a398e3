package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"agent-chatter/internal/domain"
	"agent-chatter/internal/llm"
)

func newChatFixture(mock *llm.MockClient, repo *mockMessageRepo) (*ChatService, HistoryCache) {
	cache := NewMemoryHistoryCache(30, time.Hour)
	messages := NewMessageService(repo, cache)
	contextSvc := NewCachedContextService(cache, repo)
	return NewChatService(mock, messages, contextSvc, nopLogger(), 20), cache
}

func helpfulAgent() domain.Agent {
	return domain.Agent{ID: "a1", Name: "General Assistant", SystemPrompt: "You are helpful"}
}

func TestChatServiceStreamTurn_EndToEnd(t *testing.T) {
	mock := &llm.MockClient{Chunks: []string{"Hi ", "there!"}}
	repo := &mockMessageRepo{}
	svc, cache := newChatFixture(mock, repo)

	var received []string
	err := svc.StreamTurn(context.Background(), "c1", helpfulAgent(), "Hi", func(chunk string) error {
		received = append(received, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(received) != 2 || received[0] != "Hi " || received[1] != "there!" {
		t.Fatalf("expected chunks [Hi , there!], got %+v", received)
	}
	if mock.LastSystemPrompt != "You are helpful" {
		t.Fatalf("expected system prompt forwarded, got %q", mock.LastSystemPrompt)
	}

	stored := repo.stored()
	if len(stored) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(stored))
	}
	if stored[0].Role != domain.RoleUser || stored[0].Content != "Hi" {
		t.Fatalf("expected user message first, got %+v", stored[0])
	}
	if stored[1].Role != domain.RoleAssistant || stored[1].Content != "Hi there!" {
		t.Fatalf("expected assembled assistant reply, got %+v", stored[1])
	}

	cached, ok := cache.Recent(context.Background(), "c1")
	if !ok || len(cached) != 2 {
		t.Fatalf("expected both messages cached, got ok=%v n=%d", ok, len(cached))
	}
	if cached[0].Content != "Hi" || cached[1].Content != "Hi there!" {
		t.Fatalf("expected cache oldest-first, got %+v", cached)
	}
}

func TestChatServiceStreamTurn_CacheIsSubsetOfStore(t *testing.T) {
	mock := &llm.MockClient{Chunks: []string{"ok"}}
	repo := &mockMessageRepo{}
	svc, cache := newChatFixture(mock, repo)

	for _, text := range []string{"uno", "dos", "tres"} {
		if err := svc.StreamTurn(context.Background(), "c1", helpfulAgent(), text, func(string) error { return nil }); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	cached, ok := cache.Recent(context.Background(), "c1")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	stored := repo.stored()
	for _, cm := range cached {
		found := false
		for _, sm := range stored {
			if sm.ID == cm.ID && sm.Content == cm.Content && sm.Role == cm.Role {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("cached message %+v missing from store", cm)
		}
	}
}

func TestChatServiceStreamTurn_ContextExcludesCurrentMessage(t *testing.T) {
	mock := &llm.MockClient{Chunks: []string{"respuesta"}}
	repo := &mockMessageRepo{}
	svc, _ := newChatFixture(mock, repo)

	if err := svc.StreamTurn(context.Background(), "c1", helpfulAgent(), "primera pregunta", func(string) error { return nil }); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mock.LastHistory) != 0 {
		t.Fatalf("expected empty context on first turn, got %+v", mock.LastHistory)
	}

	if err := svc.StreamTurn(context.Background(), "c1", helpfulAgent(), "segunda pregunta", func(string) error { return nil }); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, entry := range mock.LastHistory {
		if entry.Content == "segunda pregunta" {
			t.Fatalf("current turn leaked into its own context: %+v", mock.LastHistory)
		}
	}
	if len(mock.LastHistory) != 2 {
		t.Fatalf("expected prior turn (user+assistant) as context, got %+v", mock.LastHistory)
	}
	if mock.LastHistory[0].Content != "primera pregunta" || mock.LastHistory[1].Content != "respuesta" {
		t.Fatalf("expected chronological context, got %+v", mock.LastHistory)
	}
}

func TestChatServiceStreamTurn_UserPersistFailureProducesNoChunks(t *testing.T) {
	mock := &llm.MockClient{Chunks: []string{"no debería salir"}}
	repo := &mockMessageRepo{createErr: func(domain.Message) error { return errors.New("db down") }}
	svc, _ := newChatFixture(mock, repo)

	chunks := 0
	err := svc.StreamTurn(context.Background(), "c1", helpfulAgent(), "Hi", func(string) error {
		chunks++
		return nil
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if chunks != 0 {
		t.Fatalf("expected no chunks, got %d", chunks)
	}
	if mock.LastPrompt != "" {
		t.Fatalf("model must not be called when the user message cannot be recorded")
	}
	if len(repo.stored()) != 0 {
		t.Fatalf("expected nothing persisted, got %d", len(repo.stored()))
	}
}

func TestChatServiceStreamTurn_PartialReplyPersisted(t *testing.T) {
	mock := &llm.MockClient{Chunks: []string{"Hel", "lo"}, Err: errors.New("stream reset")}
	repo := &mockMessageRepo{}
	svc, _ := newChatFixture(mock, repo)

	var received []string
	err := svc.StreamTurn(context.Background(), "c1", helpfulAgent(), "Hi", func(chunk string) error {
		received = append(received, chunk)
		return nil
	})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if len(received) != 2 {
		t.Fatalf("expected both chunks delivered before the failure, got %+v", received)
	}

	stored := repo.stored()
	if len(stored) != 2 {
		t.Fatalf("expected user + partial assistant persisted, got %d", len(stored))
	}
	if stored[1].Role != domain.RoleAssistant || stored[1].Content != "Hello" {
		t.Fatalf("expected partial reply \"Hello\" persisted, got %+v", stored[1])
	}
}

func TestChatServiceStreamTurn_EmptyStreamPersistsNoReply(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("model unavailable")}
	repo := &mockMessageRepo{}
	svc, _ := newChatFixture(mock, repo)

	err := svc.StreamTurn(context.Background(), "c1", helpfulAgent(), "Hi", func(string) error { return nil })
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}

	stored := repo.stored()
	if len(stored) != 1 || stored[0].Role != domain.RoleUser {
		t.Fatalf("expected only the user message persisted, got %+v", stored)
	}
}

func TestChatServiceStreamTurn_ReplyPersistFailureIsAWarning(t *testing.T) {
	mock := &llm.MockClient{Chunks: []string{"Hi ", "there!"}}
	repo := &mockMessageRepo{createErr: func(msg domain.Message) error {
		if msg.Role == domain.RoleAssistant {
			return errors.New("db down")
		}
		return nil
	}}
	svc, _ := newChatFixture(mock, repo)

	var received []string
	err := svc.StreamTurn(context.Background(), "c1", helpfulAgent(), "Hi", func(chunk string) error {
		received = append(received, chunk)
		return nil
	})
	if !errors.Is(err, ErrReplyNotPersisted) {
		t.Fatalf("expected ErrReplyNotPersisted, got %v", err)
	}
	if errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("persistence warning must be distinguishable from a generation failure")
	}
	if len(received) != 2 {
		t.Fatalf("caller already got the reply; expected 2 chunks, got %d", len(received))
	}
}

func TestChatServiceStreamTurn_CallerAbortStillPersists(t *testing.T) {
	mock := &llm.MockClient{Chunks: []string{"Hi ", "there!"}}
	repo := &mockMessageRepo{}
	svc, _ := newChatFixture(mock, repo)

	forwarded := 0
	err := svc.StreamTurn(context.Background(), "c1", helpfulAgent(), "Hi", func(string) error {
		forwarded++
		return errors.New("client disconnected")
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if forwarded != 1 {
		t.Fatalf("expected forwarding to stop after the first failure, got %d", forwarded)
	}

	stored := repo.stored()
	if len(stored) != 2 || stored[1].Content != "Hi there!" {
		t.Fatalf("expected full reply persisted despite the disconnect, got %+v", stored)
	}
}

func TestChatServiceCompleteTurn_DrainsInternally(t *testing.T) {
	mock := &llm.MockClient{Chunks: []string{"Hi ", "there!"}}
	repo := &mockMessageRepo{}
	svc, _ := newChatFixture(mock, repo)

	reply, err := svc.CompleteTurn(context.Background(), "c1", helpfulAgent(), "Hi")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply != "Hi there!" {
		t.Fatalf("expected concatenated reply, got %q", reply)
	}
	if len(repo.stored()) != 2 {
		t.Fatalf("expected same persistence guarantees as streaming, got %d messages", len(repo.stored()))
	}
}
