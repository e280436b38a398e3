package llm

import "context"

// ChatMessage es un turno previo que se pasa como contexto al modelo.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client define la interfaz del productor de chunks: emite la respuesta del
// modelo fragmento a fragmento via onChunk, en orden, y retorna cuando el
// stream termina. Un error a mitad de stream deja entregados los chunks ya
// emitidos; el caller decide que hacer con el parcial.
type Client interface {
	Stream(ctx context.Context, prompt, systemPrompt string, history []ChatMessage, onChunk func(chunk string) error) error
}
