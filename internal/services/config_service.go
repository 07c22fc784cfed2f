package services

import (
	"log"
	"sync"

	"llmdesk/internal/config"
)

// ConfigService holds the live application configuration.
// The config watcher swaps the snapshot on reload; readers get copies.
type ConfigService struct {
	mu  sync.RWMutex
	cfg *config.AppConfig
}

// NewConfigService creates a config service around an initial snapshot
func NewConfigService(cfg *config.AppConfig) *ConfigService {
	return &ConfigService{cfg: cfg.Clone()}
}

// Get returns a copy of the current configuration
func (s *ConfigService) Get() *config.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cfg.Clone()
}

// Update replaces the configuration snapshot
func (s *ConfigService) Update(cfg *config.AppConfig) {
	if cfg == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg.Clone()
	log.Printf("📌 [CONFIG] Configuration updated (page sizes %d/%d, log level %s)",
		cfg.Pagination.DefaultPageSize, cfg.Pagination.MaxPageSize, cfg.Log.Level)
}
