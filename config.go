package marketmind

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all service configuration, populated from the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	GroqAPIKey       string `env:"GROQ_API_KEY"`
	GroqModel        string `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`
	PerplexityAPIKey string `env:"PERPLEXITY_API_KEY"`
	PerplexityModel  string `env:"PERPLEXITY_MODEL" envDefault:"sonar"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`

	CoinGeckoAPIKey  string `env:"COINGECKO_API_KEY"`
	NewsPrimaryURL   string `env:"NEWS_PRIMARY_URL"`
	NewsSecondaryURL string `env:"NEWS_SECONDARY_URL"`
	NewsAPIKey       string `env:"NEWS_API_KEY"`
	SocialBaseURL    string `env:"SOCIAL_BASE_URL"`
	SocialBearer     string `env:"SOCIAL_BEARER_TOKEN"`

	StoreType string `env:"STORE_TYPE" envDefault:"memory"`
	// StoreDSN is a file path for memory/sqlite stores or a connection
	// string for postgres.
	StoreDSN string `env:"STORE_DSN" envDefault:"marketmind_data.json"`

	SignalRefreshInterval time.Duration `env:"SIGNAL_REFRESH_INTERVAL" envDefault:"5m"`
	SignalTokens          []string      `env:"SIGNAL_TOKENS" envSeparator:"," envDefault:"bitcoin,ethereum,solana"`
}

// LoadConfig loads a .env file when present and parses the environment into
// a Config.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}
