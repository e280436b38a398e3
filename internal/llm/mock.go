package llm

import "context"

// MockClient permite tests sin llamar a un LLM real: emite Chunks en orden y
// despues devuelve Err (nil para un stream exitoso).
type MockClient struct {
	Chunks []string
	Err    error

	LastPrompt       string
	LastSystemPrompt string
	LastHistory      []ChatMessage
}

func (m *MockClient) Stream(_ context.Context, prompt, systemPrompt string, history []ChatMessage, onChunk func(chunk string) error) error {
	m.LastPrompt = prompt
	m.LastSystemPrompt = systemPrompt
	m.LastHistory = history
	for _, chunk := range m.Chunks {
		if err := onChunk(chunk); err != nil {
			return err
		}
	}
	return m.Err
}
