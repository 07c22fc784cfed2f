package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"llmdesk/internal/config"
	"llmdesk/internal/crypto"
	"llmdesk/internal/database"
	"llmdesk/internal/models"
)

// apiKeyPurpose scopes the HKDF-derived key used for model API keys
const apiKeyPurpose = "cloud-llm-model-api-key"

const modelColumns = `id, name, provider, base_url, api_key, model_name, description,
	max_tokens, temperature, context_length, supports_vision, supports_tools,
	enabled, sort_order, created_at, updated_at`

// CloudLLMModelPageResult is one page of cloud models
type CloudLLMModelPageResult struct {
	Items      []models.CloudLLMModel `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalPages int                    `json:"total_pages"`
}

// CloudLLMModelService manages cloud model records
type CloudLLMModelService struct {
	db            *database.DB
	encryption    *crypto.EncryptionService // nil stores API keys as plaintext
	configService *ConfigService
	events        *EventBus
}

// NewCloudLLMModelService creates a new cloud model service.
// encryption, configService and events are optional.
func NewCloudLLMModelService(db *database.DB, encryption *crypto.EncryptionService, configService *ConfigService, events *EventBus) *CloudLLMModelService {
	return &CloudLLMModelService{
		db:            db,
		encryption:    encryption,
		configService: configService,
		events:        events,
	}
}

// Create inserts a new model. Any incoming ID and timestamps are ignored;
// on success m carries the assigned ID and timestamps.
func (s *CloudLLMModelService) Create(ctx context.Context, m *models.CloudLLMModel) error {
	if err := normalizeModel(m); err != nil {
		return err
	}
	if err := s.checkNameAvailable(ctx, m.Name, 0); err != nil {
		return err
	}

	storedKey, err := s.sealKey(m.APIKey)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO cloud_llm_models
		(name, provider, base_url, api_key, model_name, description, max_tokens, temperature,
		 context_length, supports_vision, supports_tools, enabled, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.Name, m.Provider, m.BaseURL, storedKey, m.ModelName, m.Description, m.MaxTokens, m.Temperature,
		m.ContextLength, m.SupportsVision, m.SupportsTools, m.Enabled, m.SortOrder, now, now)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %q", ErrDuplicateModel, m.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to create cloud model: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get model ID: %w", err)
	}

	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now

	log.Printf("📝 [MODELS] Created cloud model %d: %s (%s/%s)", m.ID, m.Name, m.Provider, m.ModelName)
	s.events.Publish(ctx, models.ChangeEvent{Type: models.EventModelCreated, ModelID: m.ID})
	return nil
}

// Update replaces every editable field of an existing model.
// An API key equal to the masked form of the stored key keeps the stored key.
func (s *CloudLLMModelService) Update(ctx context.Context, m *models.CloudLLMModel) error {
	if m.ID < 1 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidModel)
	}
	if err := normalizeModel(m); err != nil {
		return err
	}

	existing, err := s.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	if err := s.checkNameAvailable(ctx, m.Name, m.ID); err != nil {
		return err
	}

	if m.APIKey != "" && m.APIKey == MaskAPIKey(existing.APIKey) {
		m.APIKey = existing.APIKey
	}
	storedKey, err := s.sealKey(m.APIKey)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	_, err = s.db.ExecContext(ctx, `
		UPDATE cloud_llm_models
		SET name = ?, provider = ?, base_url = ?, api_key = ?, model_name = ?, description = ?,
		    max_tokens = ?, temperature = ?, context_length = ?, supports_vision = ?,
		    supports_tools = ?, enabled = ?, sort_order = ?, updated_at = ?
		WHERE id = ?
	`, m.Name, m.Provider, m.BaseURL, storedKey, m.ModelName, m.Description,
		m.MaxTokens, m.Temperature, m.ContextLength, m.SupportsVision,
		m.SupportsTools, m.Enabled, m.SortOrder, now, m.ID)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %q", ErrDuplicateModel, m.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to update cloud model: %w", err)
	}

	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = now

	log.Printf("✏️  [MODELS] Updated cloud model %d: %s", m.ID, m.Name)
	s.events.Publish(ctx, models.ChangeEvent{Type: models.EventModelUpdated, ModelID: m.ID})
	return nil
}

// Delete removes a model
func (s *CloudLLMModelService) Delete(ctx context.Context, id int64) error {
	if id < 1 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidModel)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM cloud_llm_models WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete cloud model: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: id %d", ErrModelNotFound, id)
	}

	log.Printf("🗑️  [MODELS] Deleted cloud model %d", id)
	s.events.Publish(ctx, models.ChangeEvent{Type: models.EventModelDeleted, ModelID: id})
	return nil
}

// GetByID returns a model with its API key decrypted
func (s *CloudLLMModelService) GetByID(ctx context.Context, id int64) (*models.CloudLLMModel, error) {
	if id < 1 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidModel)
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+modelColumns+" FROM cloud_llm_models WHERE id = ?", id)
	m, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrModelNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cloud model: %w", err)
	}

	if m.APIKey, err = s.openKey(m.APIKey); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns one page of models ordered by sort_order then id.
// page < 1 selects the first page; pageSize <= 0 selects the configured
// default and sizes above the configured maximum are clamped to it.
// API keys are masked.
func (s *CloudLLMModelService) List(ctx context.Context, page, pageSize int) (*CloudLLMModelPageResult, error) {
	page, pageSize = s.normalizePage(page, pageSize)

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cloud_llm_models").Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count cloud models: %w", err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	result := &CloudLLMModelPageResult{
		Items:      []models.CloudLLMModel{},
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	// Past the last page; also keeps the offset below from overflowing
	if page > totalPages {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+modelColumns+" FROM cloud_llm_models ORDER BY sort_order ASC, id ASC LIMIT ? OFFSET ?",
		pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cloud models: %w", err)
	}
	defer rows.Close()

	items := make([]models.CloudLLMModel, 0, pageSize)
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cloud model: %w", err)
		}
		plain, err := s.openKey(m.APIKey)
		if err != nil {
			return nil, err
		}
		m.APIKey = MaskAPIKey(plain)
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cloud models: %w", err)
	}

	result.Items = items
	return result, nil
}

// ToggleEnabled flips a model's enabled flag
func (s *CloudLLMModelService) ToggleEnabled(ctx context.Context, id int64, enabled bool) error {
	if id < 1 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidModel)
	}

	exists, err := s.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: id %d", ErrModelNotFound, id)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE cloud_llm_models SET enabled = ?, updated_at = ? WHERE id = ?",
		enabled, time.Now().UTC().Truncate(time.Second), id,
	)
	if err != nil {
		return fmt.Errorf("failed to toggle cloud model: %w", err)
	}

	log.Printf("🔀 [MODELS] Cloud model %d enabled=%v", id, enabled)
	s.events.Publish(ctx, models.ChangeEvent{Type: models.EventModelToggled, ModelID: id, Enabled: &enabled})
	return nil
}

// Stats returns total and enabled model counts
func (s *CloudLLMModelService) Stats(ctx context.Context) (total, enabled int64, err error) {
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN enabled THEN 1 ELSE 0 END), 0) FROM cloud_llm_models",
	).Scan(&total, &enabled)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count cloud models: %w", err)
	}
	return total, enabled, nil
}

func (s *CloudLLMModelService) exists(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cloud_llm_models WHERE id = ?", id).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to query cloud model: %w", err)
	}
	return count > 0, nil
}

func (s *CloudLLMModelService) checkNameAvailable(ctx context.Context, name string, selfID int64) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cloud_llm_models WHERE name = ? AND id <> ?", name, selfID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check model name: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateModel, name)
	}
	return nil
}

func (s *CloudLLMModelService) normalizePage(page, pageSize int) (int, int) {
	pagination := config.Default("").Pagination
	if s.configService != nil {
		pagination = s.configService.Get().Pagination
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	if pageSize > pagination.MaxPageSize {
		pageSize = pagination.MaxPageSize
	}
	return page, pageSize
}

func (s *CloudLLMModelService) sealKey(plain string) (string, error) {
	if s.encryption == nil || plain == "" {
		return plain, nil
	}
	sealed, err := s.encryption.EncryptString(apiKeyPurpose, plain)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt api key: %w", err)
	}
	return sealed, nil
}

// openKey decrypts a stored key. Plaintext values written before encryption
// was configured are returned as-is.
func (s *CloudLLMModelService) openKey(stored string) (string, error) {
	if s.encryption == nil || !crypto.IsCiphertext(stored) {
		return stored, nil
	}
	plain, err := s.encryption.DecryptString(apiKeyPurpose, stored)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt api key: %w", err)
	}
	return plain, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModel(row rowScanner) (*models.CloudLLMModel, error) {
	var m models.CloudLLMModel
	err := row.Scan(
		&m.ID, &m.Name, &m.Provider, &m.BaseURL, &m.APIKey, &m.ModelName, &m.Description,
		&m.MaxTokens, &m.Temperature, &m.ContextLength, &m.SupportsVision, &m.SupportsTools,
		&m.Enabled, &m.SortOrder, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// normalizeModel trims fields and validates ranges in place
func normalizeModel(m *models.CloudLLMModel) error {
	if m == nil {
		return fmt.Errorf("%w: model is required", ErrInvalidModel)
	}

	m.Name = strings.TrimSpace(m.Name)
	m.Provider = strings.ToLower(strings.TrimSpace(m.Provider))
	m.BaseURL = strings.TrimRight(strings.TrimSpace(m.BaseURL), "/")
	m.APIKey = strings.TrimSpace(m.APIKey)
	m.ModelName = strings.TrimSpace(m.ModelName)
	m.Description = strings.TrimSpace(m.Description)

	switch {
	case m.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidModel)
	case len(m.Name) > 255:
		return fmt.Errorf("%w: name exceeds 255 characters", ErrInvalidModel)
	case m.Provider == "":
		return fmt.Errorf("%w: provider is required", ErrInvalidModel)
	case m.ModelName == "":
		return fmt.Errorf("%w: model_name is required", ErrInvalidModel)
	case m.MaxTokens < 0:
		return fmt.Errorf("%w: max_tokens must not be negative", ErrInvalidModel)
	case m.ContextLength < 0:
		return fmt.Errorf("%w: context_length must not be negative", ErrInvalidModel)
	case m.Temperature < 0 || m.Temperature > 2:
		return fmt.Errorf("%w: temperature must be between 0 and 2", ErrInvalidModel)
	}

	if m.BaseURL != "" {
		u, err := url.Parse(m.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: base_url must be an absolute http(s) URL", ErrInvalidModel)
		}
	}
	return nil
}

// MaskAPIKey hides all but the first three and last four characters
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + strings.Repeat("*", 8) + key[len(key)-4:]
}
