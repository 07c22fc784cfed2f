package database

// columnMigration adds a column that older databases lack
type columnMigration struct {
	table      string
	column     string
	definition string
}

// Columns added after the first release. New databases get them from the
// CREATE statements; these only upgrade older files. Definitions are valid in
// both SQLite and MySQL.
var columnMigrations = []columnMigration{
	{"cloud_llm_models", "context_length", "INTEGER NOT NULL DEFAULT 0"},
	{"cloud_llm_models", "supports_vision", "BOOLEAN NOT NULL DEFAULT FALSE"},
	{"cloud_llm_models", "supports_tools", "BOOLEAN NOT NULL DEFAULT FALSE"},
	{"cloud_llm_models", "sort_order", "INTEGER NOT NULL DEFAULT 0"},
}

// RequiredTables are checked by preflight
var RequiredTables = []string{"cloud_llm_models", "settings"}

func createStatements(dialect Dialect) []string {
	if dialect == DialectMySQL {
		return []string{
			`CREATE TABLE IF NOT EXISTS cloud_llm_models (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				provider VARCHAR(100) NOT NULL,
				base_url VARCHAR(1024) NOT NULL DEFAULT '',
				api_key TEXT NOT NULL,
				model_name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL,
				max_tokens INT NOT NULL DEFAULT 0,
				temperature DOUBLE NOT NULL DEFAULT 0,
				context_length INT NOT NULL DEFAULT 0,
				supports_vision BOOLEAN NOT NULL DEFAULT FALSE,
				supports_tools BOOLEAN NOT NULL DEFAULT FALSE,
				enabled BOOLEAN NOT NULL DEFAULT TRUE,
				sort_order INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				UNIQUE KEY uniq_cloud_llm_models_name (name),
				INDEX idx_cloud_llm_models_enabled (enabled),
				INDEX idx_cloud_llm_models_sort (sort_order, id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
			`CREATE TABLE IF NOT EXISTS settings (
				` + "`key`" + ` VARCHAR(255) PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
		}
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS cloud_llm_models (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			provider TEXT NOT NULL,
			base_url TEXT NOT NULL DEFAULT '',
			api_key TEXT NOT NULL DEFAULT '',
			model_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			max_tokens INTEGER NOT NULL DEFAULT 0,
			temperature REAL NOT NULL DEFAULT 0,
			context_length INTEGER NOT NULL DEFAULT 0,
			supports_vision BOOLEAN NOT NULL DEFAULT FALSE,
			supports_tools BOOLEAN NOT NULL DEFAULT FALSE,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cloud_llm_models_enabled ON cloud_llm_models(enabled)`,
		`CREATE TABLE IF NOT EXISTS settings (
			` + "`key`" + ` TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}
