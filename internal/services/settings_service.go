package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"llmdesk/internal/database"
	"llmdesk/internal/models"

	"github.com/patrickmn/go-cache"
)

// SettingsService handles string-keyed user preferences
type SettingsService struct {
	db     *database.DB
	cache  *cache.Cache
	events *EventBus
}

// NewSettingsService creates a settings service. events may be nil, in which
// case every read goes to the database.
func NewSettingsService(db *database.DB, events *EventBus) *SettingsService {
	s := &SettingsService{
		db:     db,
		cache:  cache.New(10*time.Minute, 20*time.Minute),
		events: events,
	}
	events.OnRemote(s.handleRemoteEvent)
	return s
}

// handleRemoteEvent drops cached values another instance has changed
func (s *SettingsService) handleRemoteEvent(ev models.ChangeEvent) {
	if ev.Type == models.EventSettingChanged && ev.SettingKey != "" {
		s.cache.Delete(ev.SettingKey)
	}
}

// cacheable reports whether a cached value can be trusted. A SQLite file
// belongs to a single instance; a shared MySQL database is only cached when
// other instances' writes arrive as mirrored events.
func (s *SettingsService) cacheable() bool {
	if s.events == nil {
		return false
	}
	return s.db.Dialect() == database.DialectSQLite || s.events.Mirrored()
}

// Get retrieves a setting by key. A key that was never set returns "".
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	if err := validateSettingKey(key); err != nil {
		return "", err
	}

	useCache := s.cacheable()
	if useCache {
		if value, found := s.cache.Get(key); found {
			return value.(string), nil
		}
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE `key` = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil // Not found is not an error
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}

	if useCache {
		s.cache.Set(key, value, cache.DefaultExpiration)
	}
	return value, nil
}

// Set updates or creates a setting
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if err := validateSettingKey(key); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	var query string
	switch s.db.Dialect() {
	case database.DialectMySQL:
		query = "INSERT INTO settings (`key`, value, updated_at) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)"
	default:
		query = "INSERT INTO settings (`key`, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(`key`) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at"
	}

	if _, err := s.db.ExecContext(ctx, query, key, value, now); err != nil {
		s.cache.Delete(key)
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	if s.cacheable() {
		s.cache.Set(key, value, cache.DefaultExpiration)
	} else {
		s.cache.Delete(key)
	}

	log.Printf("⚙️  [SETTINGS] %s updated", key)
	s.events.Publish(ctx, models.ChangeEvent{Type: models.EventSettingChanged, SettingKey: key})
	return nil
}

// GetAll returns every stored setting ordered by key
func (s *SettingsService) GetAll(ctx context.Context) ([]models.Setting, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT `key`, value, updated_at FROM settings ORDER BY `key`")
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make([]models.Setting, 0)
	for rows.Next() {
		var setting models.Setting
		if err := rows.Scan(&setting.Key, &setting.Value, &setting.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, setting)
	}
	return settings, rows.Err()
}

// Delete removes a setting. Deleting an absent key is not an error.
func (s *SettingsService) Delete(ctx context.Context, key string) error {
	if err := validateSettingKey(key); err != nil {
		return err
	}

	s.cache.Delete(key)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE `key` = ?", key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}

	s.events.Publish(ctx, models.ChangeEvent{Type: models.EventSettingChanged, SettingKey: key})
	return nil
}

func validateSettingKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidSettingKey)
	}
	if len(key) > models.MaxSettingKeyLength {
		return fmt.Errorf("%w: key exceeds %d characters", ErrInvalidSettingKey, models.MaxSettingKeyLength)
	}
	return nil
}
