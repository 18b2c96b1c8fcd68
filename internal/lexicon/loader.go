package lexicon

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Wordlist is the schema of one YAML wordlist file.
type Wordlist struct {
	Name  string   `yaml:"name,omitempty"`
	Words []string `yaml:"words"`
}

// LoadDir reads extra seed words from YAML files in a directory. Files must
// have a .yaml or .yml extension and conform to the Wordlist schema. A
// missing directory is not an error; malformed files are skipped with a
// warning.
func LoadDir(dir string, logger *slog.Logger) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("wordlist directory does not exist, skipping", "dir", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read wordlist dir: %w", err)
	}

	var seeds []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read wordlist file", "path", path, "err", err)
			continue
		}

		var wl Wordlist
		if err := yaml.Unmarshal(data, &wl); err != nil {
			logger.Warn("cannot parse wordlist file", "path", path, "err", err)
			continue
		}

		count := 0
		for _, w := range wl.Words {
			w = strings.TrimSpace(w)
			if w == "" {
				continue
			}
			seeds = append(seeds, w)
			count++
		}
		logger.Info("loaded wordlist", "path", path, "words", count)
	}

	return seeds, nil
}

// LoadFile reads one wordlist file. A missing file yields an empty list.
func LoadFile(path string) (Wordlist, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Wordlist{}, nil
	}
	if err != nil {
		return Wordlist{}, fmt.Errorf("read wordlist: %w", err)
	}
	var wl Wordlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return Wordlist{}, fmt.Errorf("parse wordlist: %w", err)
	}
	return wl, nil
}

// SaveFile writes a wordlist file, creating the directory if needed.
func SaveFile(path string, wl Wordlist) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(wl)
	if err != nil {
		return fmt.Errorf("marshal wordlist: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
