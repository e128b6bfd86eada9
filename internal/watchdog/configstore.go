package watchdog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vitos/algo_trade_runner/internal/domain"
)

// ConfigStore reads and rewrites the shared strategy-configuration file, a
// JSON object keyed by strategy id. Deployment tooling writes it too, so
// every rewrite goes through a temp file and an atomic rename; a reader can
// never observe a partial write.
type ConfigStore struct {
	path string
}

func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path}
}

// Load returns all entries. A missing file is an empty store, not an error.
func (s *ConfigStore) Load() (map[string]*domain.StrategyConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*domain.StrategyConfig{}, nil
		}
		return nil, fmt.Errorf("config store: read %s: %w", s.path, err)
	}

	var entries map[string]*domain.StrategyConfig
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("config store: parse %s: %w", s.path, err)
	}
	if entries == nil {
		entries = map[string]*domain.StrategyConfig{}
	}
	return entries, nil
}

// Save atomically replaces the store contents.
func (s *ConfigStore) Save(entries map[string]*domain.StrategyConfig) error {
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("config store: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".strategies-*.json")
	if err != nil {
		return fmt.Errorf("config store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("config store: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("config store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("config store: rename: %w", err)
	}
	return nil
}
