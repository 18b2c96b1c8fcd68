package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Placeholder credential values. Leaving these in the config is a startup
// error: the process refuses to run with template credentials.
const (
	PlaceholderTelegramToken = "YOUR_TELEGRAM_BOT_TOKEN"
	PlaceholderAPIKey        = "YOUR_API_KEY"
)

// Config is the root configuration for raqib.
type Config struct {
	General    GeneralConfig    `json:"general"`
	Channels   ChannelsConfig   `json:"channels"`
	Classifier ClassifierConfig `json:"classifier"`
	Moderation ModerationConfig `json:"moderation"`
	Lexicon    LexiconConfig    `json:"lexicon"`
	Cache      CacheConfig      `json:"cache"`
	Audit      AuditConfig      `json:"audit"`
	Health     HealthConfig     `json:"health"`
}

type GeneralConfig struct {
	DataDir               string `json:"dataDir"`
	LogLevel              string `json:"logLevel"` // debug | info | warn | error
	MaxConcurrentMessages int    `json:"maxConcurrentMessages"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Token     string         `json:"token"`
	AllowFrom FlexStringList `json:"allowFrom"` // chat IDs; empty = moderate everywhere
	ParseMode string         `json:"parseMode"`
}

type ClassifierConfig struct {
	Provider       string `json:"provider"` // "gemini" | "openai"
	APIKey         string `json:"apiKey"`
	APIBase        string `json:"apiBase,omitempty"`
	Model          string `json:"model,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type ModerationConfig struct {
	// FailPolicy decides the verdict when the remote classifier itself
	// fails: "open" treats the message as clean, "closed" flags it.
	FailPolicy          string `json:"failPolicy"`
	CheckTimeoutSeconds int    `json:"checkTimeoutSeconds"`
}

type LexiconConfig struct {
	WordlistDir string `json:"wordlistDir,omitempty"`
}

type CacheConfig struct {
	Enabled       bool   `json:"enabled"`
	RedisAddr     string `json:"redisAddr"`
	RedisPassword string `json:"redisPassword,omitempty"`
	RedisDB       int    `json:"redisDb"`
	TTLHours      int    `json:"ttlHours"`
}

type AuditConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath"`
}

type HealthConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// FlexStringList is a []string that can unmarshal from JSON arrays containing
// both strings and numbers (e.g. ["123", 456] both become "123", "456").
type FlexStringList []string

func (f *FlexStringList) UnmarshalJSON(data []byte) error {
	// Try []string first
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	// Fallback: array of mixed types
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			result = append(result, s)
			continue
		}
		var n float64
		if err := json.Unmarshal(item, &n); err == nil {
			result = append(result, strconv.FormatInt(int64(n), 10))
			continue
		}
		result = append(result, string(item))
	}
	*f = result
	return nil
}

// DefaultConfigDir returns the default config directory (~/.raqib).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".raqib"
	}
	return filepath.Join(home, ".raqib")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.DataDir = ExpandPath(cfg.General.DataDir)
	cfg.Audit.DBPath = ExpandPath(cfg.Audit.DBPath)
	cfg.Lexicon.WordlistDir = ExpandPath(cfg.Lexicon.WordlistDir)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// RequireCredentials checks that the platform token and classifier API key
// are present and not left at their placeholder values. Called before the
// gateway starts; the process exits with the returned error. Kept out of
// Validate so that init/config/doctor commands work on a fresh config.
func RequireCredentials(cfg *Config) error {
	var errs []string

	token := strings.TrimSpace(cfg.Channels.Telegram.Token)
	if token == "" || token == PlaceholderTelegramToken {
		errs = append(errs, "channels.telegram.token is not set (talk to @BotFather on Telegram to get one)")
	}

	key := strings.TrimSpace(cfg.Classifier.APIKey)
	if key == "" || key == PlaceholderAPIKey || strings.HasPrefix(key, "YOUR_") {
		errs = append(errs, fmt.Sprintf("classifier.apiKey is not set for provider %s", cfg.Classifier.Provider))
	}

	if len(errs) > 0 {
		return fmt.Errorf("missing credentials:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.Classifier.Provider {
	case "gemini", "openai":
		// valid
	default:
		errs = append(errs, "classifier.provider must be one of: gemini, openai")
	}

	if cfg.Classifier.TimeoutSeconds < 1 {
		errs = append(errs, "classifier.timeoutSeconds must be >= 1")
	}

	switch cfg.Moderation.FailPolicy {
	case "open", "closed":
		// valid
	default:
		errs = append(errs, "moderation.failPolicy must be one of: open, closed")
	}
	if cfg.Moderation.CheckTimeoutSeconds < 1 {
		errs = append(errs, "moderation.checkTimeoutSeconds must be >= 1")
	}

	if cfg.General.MaxConcurrentMessages < 1 || cfg.General.MaxConcurrentMessages > 100 {
		errs = append(errs, "general.maxConcurrentMessages must be between 1 and 100")
	}
	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Health.Port < 0 || cfg.Health.Port > 65535 {
		errs = append(errs, "health.port must be between 0 and 65535")
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.RedisAddr == "" {
			errs = append(errs, "cache.redisAddr is required when cache is enabled")
		}
		if cfg.Cache.TTLHours < 1 {
			errs = append(errs, "cache.ttlHours must be >= 1")
		}
	}

	if cfg.Audit.Enabled && cfg.Audit.DBPath == "" {
		errs = append(errs, "audit.dbPath is required when audit is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
