package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"raqib/internal/audit"
	"raqib/internal/bus"
	"raqib/internal/cache"
	"raqib/internal/channel"
	"raqib/internal/classifier"
	"raqib/internal/config"
	"raqib/internal/domain"
	"raqib/internal/health"
	"raqib/internal/lexicon"
	"raqib/internal/metrics"
	"raqib/internal/moderation"
	"raqib/internal/normalize"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "raqib",
		Short:   "raqib: Arabic content moderation bot for Telegram",
		Long:    "raqib watches Telegram group chats, deletes messages with inappropriate content, and warns the sender.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.raqib/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(configCmd())
	root.AddCommand(lexiconCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			dataDir := config.ExpandPath(cfg.General.DataDir)
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "dataDir", dataDir)
			logger.Info("next step: set channels.telegram.token and classifier.apiKey, then run 'raqib run'")
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot (Telegram channel + moderation loop + health server)",
		Long:  "Starts the Telegram channel, the moderation loop, and the liveness HTTP server. Press Ctrl+C to stop.",
		RunE:  runGateway,
	}
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.RequireCredentials(cfg); err != nil {
		return err
	}

	logger = newLogger(cfg.General.LogLevel)

	dataDir := config.ExpandPath(cfg.General.DataDir)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lex, err := buildLexicon(cfg)
	if err != nil {
		return err
	}
	metrics.LexiconTerms.Set(float64(lex.Count()))
	logger.Info("lexicon built", "terms", lex.Count())

	cls, err := classifier.New(cfg.Classifier, logger)
	if err != nil {
		return err
	}
	if err := cls.Healthy(ctx); err != nil {
		logger.Warn("classifier unreachable at startup", "provider", cls.Name(), "err", err)
	} else {
		logger.Info("classifier healthy", "provider", cls.Name())
	}

	var verdictCache moderation.VerdictCache
	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		vc := cache.New(client, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		if err := vc.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, verdict cache disabled", "addr", cfg.Cache.RedisAddr, "err", err)
		} else {
			verdictCache = vc
			logger.Info("verdict cache enabled", "addr", cfg.Cache.RedisAddr)
		}
	}

	var auditStore domain.AuditStore
	if cfg.Audit.Enabled {
		store, err := audit.NewSQLiteStore(config.ExpandPath(cfg.Audit.DBPath), logger)
		if err != nil {
			return fmt.Errorf("audit store: %w", err)
		}
		defer store.Close()
		auditStore = store
	}

	messageBus := bus.New(100, logger)

	moderator := moderation.NewModerator(moderation.ModeratorConfig{
		Lexicon:    lex,
		Classifier: cls,
		Cache:      verdictCache,
		FailPolicy: cfg.Moderation.FailPolicy,
		Timeout:    time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second,
		Logger:     logger,
	})

	loop := moderation.NewLoop(moderation.LoopConfig{
		Moderator:    moderator,
		Bus:          messageBus,
		Logger:       logger,
		Concurrency:  cfg.General.MaxConcurrentMessages,
		CheckTimeout: time.Duration(cfg.Moderation.CheckTimeoutSeconds) * time.Second,
	})
	go loop.Run(ctx)

	telegramCh := channel.NewTelegram(channel.TelegramConfig{
		Token:     cfg.Channels.Telegram.Token,
		AllowFrom: cfg.Channels.Telegram.AllowFrom,
		ParseMode: cfg.Channels.Telegram.ParseMode,
		Audit:     auditStore,
		Logger:    logger,
	})
	go func() {
		if err := telegramCh.Start(ctx, messageBus); err != nil {
			logger.Error("telegram channel error", "err", err)
			stop()
		}
	}()

	if cfg.Health.Enabled {
		healthSrv := health.NewServer(health.Config{
			Host:       cfg.Health.Host,
			Port:       cfg.Health.Port,
			Classifier: cls,
			Lexicon:    lex,
			Logger:     logger,
		})
		go func() {
			if err := healthSrv.Start(ctx); err != nil {
				logger.Error("health server error", "err", err)
			}
		}()
	}

	logger.Info("raqib started. Press Ctrl+C to stop.")

	<-ctx.Done()
	logger.Info("shutting down...")

	const shutdownTimeout = 10 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		messageBus.Close()
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
		return nil
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
		return fmt.Errorf("shutdown timed out")
	}
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}

// buildLexicon combines the built-in seeds with the wordlist directory.
func buildLexicon(cfg *config.Config) (*lexicon.Lexicon, error) {
	lex := lexicon.New()
	dir := config.ExpandPath(cfg.Lexicon.WordlistDir)
	extra, err := lexicon.LoadDir(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("load wordlists: %w", err)
	}
	for _, w := range extra {
		lex.Add(w)
	}
	return lex, nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. moderation.failPolicy)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. moderation.failPolicy closed)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values (secrets masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sanitized := config.Sanitize(cfg)
			data, _ := json.MarshalIndent(sanitized, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}

const customWordlist = "custom.yaml"

func lexiconCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Inspect and edit the profanity lexicon",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all lexicon terms (seeds plus wordlists, expanded)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults()
			lex, err := buildLexicon(cfg)
			if err != nil {
				return err
			}
			for _, term := range lex.Terms() {
				fmt.Println(term)
			}
			fmt.Fprintf(os.Stderr, "%d terms\n", lex.Count())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add [word]",
		Short: "Add a word to the custom wordlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults()
			path := customWordlistPath(cfg)
			wl, err := lexicon.LoadFile(path)
			if err != nil {
				return err
			}
			word := strings.TrimSpace(args[0])
			for _, w := range wl.Words {
				if w == word {
					logger.Info("word already present", "word", word)
					return nil
				}
			}
			wl.Words = append(wl.Words, word)
			if err := lexicon.SaveFile(path, wl); err != nil {
				return err
			}
			logger.Info("word added", "word", word, "file", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove [word]",
		Short: "Remove a word from the custom wordlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults()
			path := customWordlistPath(cfg)
			wl, err := lexicon.LoadFile(path)
			if err != nil {
				return err
			}
			word := strings.TrimSpace(args[0])
			kept := wl.Words[:0]
			removed := false
			for _, w := range wl.Words {
				if w == word {
					removed = true
					continue
				}
				kept = append(kept, w)
			}
			if !removed {
				return fmt.Errorf("word not in custom wordlist: %s (built-in seeds cannot be removed)", word)
			}
			wl.Words = kept
			if err := lexicon.SaveFile(path, wl); err != nil {
				return err
			}
			logger.Info("word removed", "word", word, "file", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check [text]",
		Short: "Run the lexicon check against a text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults()
			lex, err := buildLexicon(cfg)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			normalized := normalize.Normalize(text)
			if term, ok := lex.Match(normalized); ok {
				fmt.Printf("FLAGGED (term: %s)\n", term)
				return nil
			}
			fmt.Println("clean")
			return nil
		},
	})

	return cmd
}

func loadConfigOrDefaults() *config.Config {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return config.Defaults()
	}
	return cfg
}

func customWordlistPath(cfg *config.Config) string {
	return filepath.Join(config.ExpandPath(cfg.Lexicon.WordlistDir), customWordlist)
}
