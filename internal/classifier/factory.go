package classifier

import (
	"fmt"
	"log/slog"
	"time"

	"raqib/internal/config"
	"raqib/internal/domain"
)

// New builds the classifier selected by config.
func New(cfg config.ClassifierConfig, logger *slog.Logger) (domain.Classifier, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Provider {
	case "gemini":
		return NewGemini(GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.APIBase,
			Model:   cfg.Model,
			Timeout: timeout,
			Logger:  logger,
		})
	case "openai":
		return NewOpenAI(OpenAIConfig{
			APIKey:  cfg.APIKey,
			APIBase: cfg.APIBase,
			Model:   cfg.Model,
			Timeout: timeout,
			Logger:  logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider: %s", cfg.Provider)
	}
}
