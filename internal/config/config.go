package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	LLMAPIKey    string `env:"LLM_API_KEY,required"`
	LLMBaseURL   string `env:"LLM_BASE_URL" envDefault:"https://integrate.api.nvidia.com/v1"`
	LLMModel     string `env:"LLM_MODEL" envDefault:"openai/gpt-oss-120b"`
	LLMMaxTokens int    `env:"LLM_MAX_TOKENS" envDefault:"4512"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Ventana caliente por conversacion: cantidad maxima y TTL en segundos.
	RecentMessagesLimit int `env:"RECENT_MESSAGES_LIMIT" envDefault:"30"`
	RecentMessagesTTL   int `env:"RECENT_MESSAGES_TTL" envDefault:"3600"`
	ContextLimit        int `env:"CONTEXT_LIMIT" envDefault:"20"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:3001"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
