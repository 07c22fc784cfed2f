package preflight

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"llmdesk/internal/database"
)

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Checker performs pre-flight checks before server starts
type Checker struct {
	db      *database.DB
	dataDir string
	timeout time.Duration
}

// NewChecker creates a new preflight checker
func NewChecker(db *database.DB, dataDir string) *Checker {
	return &Checker{
		db:      db,
		dataDir: dataDir,
		timeout: 5 * time.Second,
	}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll(ctx context.Context) []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results := []CheckResult{
		c.checkDatabaseConnection(ctx),
		c.checkDatabaseSchema(ctx),
		c.checkDataDirWritable(),
	}

	passed := 0
	failed := 0
	warnings := 0

	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("📊 Pre-flight summary: %d passed, %d failed, %d warnings", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == "fail" {
			return true
		}
	}
	return false
}

// checkDatabaseConnection verifies database connectivity
func (c *Checker) checkDatabaseConnection(ctx context.Context) CheckResult {
	if err := c.db.PingContext(ctx); err != nil {
		return CheckResult{
			Name:    "Database Connection",
			Status:  "fail",
			Message: "Cannot connect to database",
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Database Connection",
		Status:  "pass",
		Message: fmt.Sprintf("Database connection successful (%s)", c.db.Dialect()),
	}
}

// checkDatabaseSchema verifies all required tables exist
func (c *Checker) checkDatabaseSchema(ctx context.Context) CheckResult {
	for _, table := range database.RequiredTables {
		exists, err := c.db.TableExists(ctx, table)
		if err != nil || !exists {
			return CheckResult{
				Name:    "Database Schema",
				Status:  "fail",
				Message: fmt.Sprintf("Required table '%s' not found", table),
				Error:   err,
			}
		}
	}

	return CheckResult{
		Name:    "Database Schema",
		Status:  "pass",
		Message: fmt.Sprintf("All %d required tables exist", len(database.RequiredTables)),
	}
}

// checkDataDirWritable verifies the config and key files can be written
func (c *Checker) checkDataDirWritable() CheckResult {
	if c.dataDir == "" {
		return CheckResult{
			Name:    "Data Directory",
			Status:  "warning",
			Message: "No data directory configured",
		}
	}

	tmp, err := os.CreateTemp(c.dataDir, ".preflight-*")
	if err != nil {
		return CheckResult{
			Name:    "Data Directory",
			Status:  "fail",
			Message: fmt.Sprintf("Data directory %s is not writable", c.dataDir),
			Error:   err,
		}
	}
	tmp.Close()
	os.Remove(tmp.Name())

	return CheckResult{
		Name:    "Data Directory",
		Status:  "pass",
		Message: filepath.Clean(c.dataDir),
	}
}
