package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	// All providers (openai, deepseek, openrouter, ollama) use the same config
	LLMProvider string // Provider identifier: openai, deepseek, openrouter, ollama
	LLMAPIKey   string // Unified LLM API key
	LLMBaseURL  string // Unified LLM base URL (optional, has default per provider)
	LLMModel    string // Model name: gpt-4o, deepseek-chat, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 120)

	// Classifier configuration: a smaller model for intent, granularity and
	// operation-selection calls. Falls back to the main LLM when no key is set.
	ClassifierProvider string
	ClassifierModel    string
	ClassifierAPIKey   string
	ClassifierBaseURL  string

	// Upstream data API configuration
	UpstreamBaseURL string // Base URL of the ads/analytics backend
	UpstreamTimeout int    // Per-request timeout in seconds (default: 30)

	// Session handling
	SessionTTLHours  int // Sessions inactive longer than this are stale (default: 24)
	ResponseCacheTTL int // Response cache TTL in seconds, 0 disables the cache (default: 600)

	Mode    string
	DSN     string
	Driver  string
	Version string
	Addr    string
	Data    string
	Port    int
}

// Provider default configurations for LLM.
// Used when LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if an LLM API key is configured.
// Without one the service still answers, but every stage runs on its
// documented fallback.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("ADSIGHT_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("ADSIGHT_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("ADSIGHT_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("ADSIGHT_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("ADSIGHT_LLM_TIMEOUT_SECONDS", 120)

	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("Unknown LLM provider, using default: openai", "provider", p.LLMProvider)
			p.LLMProvider = "openai"
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	p.ClassifierProvider = getEnvOrDefault("ADSIGHT_CLASSIFIER_PROVIDER", "openai")
	p.ClassifierModel = getEnvOrDefault("ADSIGHT_CLASSIFIER_MODEL", "gpt-4o-mini")
	p.ClassifierAPIKey = getEnvOrDefault("ADSIGHT_CLASSIFIER_API_KEY", "")
	p.ClassifierBaseURL = getEnvOrDefault("ADSIGHT_CLASSIFIER_BASE_URL", "")

	p.UpstreamBaseURL = getEnvOrDefault("ADSIGHT_UPSTREAM_BASE_URL", "http://localhost:8000")
	p.UpstreamTimeout = getEnvOrDefaultInt("ADSIGHT_UPSTREAM_TIMEOUT_SECONDS", 30)

	p.SessionTTLHours = getEnvOrDefaultInt("ADSIGHT_SESSION_TTL_HOURS", 24)
	p.ResponseCacheTTL = getEnvOrDefaultInt("ADSIGHT_RESPONSE_CACHE_TTL_SECONDS", 600)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "adsight")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/adsight"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("adsight_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile) + "?_loc=auto"
	}

	if p.UpstreamBaseURL == "" {
		return errors.New("upstream base URL is required")
	}

	return nil
}
