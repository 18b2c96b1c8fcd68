package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			DataDir:               "~/.raqib",
			LogLevel:              "info",
			MaxConcurrentMessages: 5,
		},
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{
				Token:     PlaceholderTelegramToken,
				ParseMode: "HTML",
			},
		},
		Classifier: ClassifierConfig{
			Provider:       "gemini",
			APIKey:         PlaceholderAPIKey,
			Model:          "gemini-pro",
			TimeoutSeconds: 15,
		},
		Moderation: ModerationConfig{
			FailPolicy:          "open",
			CheckTimeoutSeconds: 30,
		},
		Lexicon: LexiconConfig{
			WordlistDir: "~/.raqib/wordlists",
		},
		Cache: CacheConfig{
			Enabled:   false,
			RedisAddr: "localhost:6379",
			TTLHours:  24,
		},
		Audit: AuditConfig{
			Enabled: true,
			DBPath:  "~/.raqib/audit.db",
		},
		Health: HealthConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
		},
	}
}
