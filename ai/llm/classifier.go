package llm

import (
	"log/slog"

	"github.com/adsight/adsight/internal/profile"
)

// Configuration defaults for classification-style tasks (intent,
// granularity detection, operation selection).
const (
	ClassifierMaxTokens   = 1024 // Classification tasks don't need many tokens
	ClassifierTemperature = 0.3  // Lower temperature for deterministic output
	ClassifierTimeout     = 30   // Shorter timeout for classification tasks (seconds)
)

// NewClassifierService creates an LLM service for classification tasks.
// It uses the Classifier provider configuration with fallback to the main LLM.
//
// Priority:
// 1. If ClassifierAPIKey is configured, use the dedicated classifier provider
// 2. Otherwise, fallback to the main LLM service
//
// Returns nil if both classifier creation fails and mainLLM is nil.
// Callers must check for nil return value.
func NewClassifierService(p *profile.Profile, mainLLM Service) Service {
	if p == nil {
		slog.Warn("Profile is nil, returning main LLM service for classification tasks")
		return mainLLM
	}

	if p.ClassifierAPIKey != "" {
		cfg := &Config{
			Provider:    p.ClassifierProvider,
			Model:       p.ClassifierModel,
			APIKey:      p.ClassifierAPIKey,
			BaseURL:     p.ClassifierBaseURL,
			MaxTokens:   ClassifierMaxTokens,
			Temperature: ClassifierTemperature,
			Timeout:     ClassifierTimeout,
		}

		svc, err := NewService(cfg)
		if err != nil {
			slog.Warn("Failed to create classifier LLM service, falling back to main LLM",
				"provider", cfg.Provider,
				"model", cfg.Model,
				"error", err,
			)
			return mainLLM
		}

		slog.Info("Classifier LLM service initialized",
			"provider", cfg.Provider,
			"model", cfg.Model,
		)
		return svc
	}

	slog.Info("Using main LLM service for classification tasks (no classifier API key configured)",
		"provider", p.LLMProvider,
		"model", p.LLMModel,
	)
	return mainLLM
}
