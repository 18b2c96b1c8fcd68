package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"raqib/internal/classifier"
	"raqib/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your raqib installation",
		Long: `Verifies that raqib's configuration, credentials, lexicon, database,
and remote endpoints are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("raqib doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'raqib init' to create a default configuration.\n")
				return fmt.Errorf("1 check(s) failed")
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				fmt.Printf("\nResults: %d passed, %d failed\n", passed, failed+1)
				return fmt.Errorf("config invalid")
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Credentials are not placeholders
			if err := config.RequireCredentials(cfg); err != nil {
				printFail("Credentials", err.Error())
				failed++
			} else {
				printPass("Credentials", "configured")
				passed++
			}

			// 4. Lexicon builds and is non-empty
			lex, err := buildLexicon(cfg)
			if err != nil {
				printFail("Lexicon", err.Error())
				failed++
			} else if lex.Count() == 0 {
				printFail("Lexicon", "no terms")
				failed++
			} else {
				printPass("Lexicon", fmt.Sprintf("%d terms", lex.Count()))
				passed++
			}

			// 5. Audit database writable
			if cfg.Audit.Enabled {
				dbPath := config.ExpandPath(cfg.Audit.DBPath)
				if err := checkDatabase(dbPath); err != nil {
					printFail("Audit database", err.Error())
					failed++
				} else {
					printPass("Audit database", dbPath)
					passed++
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			// 6. Classifier endpoint reachable
			cls, err := classifier.New(cfg.Classifier, logger)
			if err != nil {
				printFail("Classifier", err.Error())
				failed++
			} else if err := cls.Healthy(ctx); err != nil {
				printWarn("Classifier", fmt.Sprintf("%s unreachable: %v", cls.Name(), err))
				warned++
			} else {
				printPass("Classifier", cls.Name())
				passed++
			}

			// 7. Telegram API reachable
			if err := checkTelegramAPI(); err != nil {
				printWarn("Telegram API", fmt.Sprintf("unreachable: %v", err))
				warned++
			} else {
				printPass("Telegram API", "api.telegram.org reachable")
				passed++
			}

			// 8. Redis, if the verdict cache is enabled
			if cfg.Cache.Enabled {
				client := redis.NewClient(&redis.Options{
					Addr:     cfg.Cache.RedisAddr,
					Password: cfg.Cache.RedisPassword,
					DB:       cfg.Cache.RedisDB,
				})
				if err := client.Ping(ctx).Err(); err != nil {
					printWarn("Redis", fmt.Sprintf("unreachable: %v", err))
					warned++
				} else {
					printPass("Redis", cfg.Cache.RedisAddr)
					passed++
				}
				client.Close()
			}

			// 9. Health port available
			if cfg.Health.Enabled {
				if err := checkPort(cfg.Health.Port); err != nil {
					printWarn("Health port", fmt.Sprintf("port %d may be in use: %v", cfg.Health.Port, err))
					warned++
				} else {
					printPass("Health port", fmt.Sprintf(":%d available", cfg.Health.Port))
					passed++
				}
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running raqib.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nraqib should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! raqib is ready to run.\n")
			}
			return nil
		},
	}
}

func checkDatabase(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}

	// Try a write.
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_test (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	db.ExecContext(ctx, "DROP TABLE IF EXISTS _doctor_test")

	return nil
}

func checkTelegramAPI() error {
	conn, err := net.DialTimeout("tcp", "api.telegram.org:443", 5*time.Second)
	if err != nil {
		return err
	}
	conn.Close()
	return nil
}

func checkPort(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
