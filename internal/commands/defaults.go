package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"llmdesk/internal/client"
	"llmdesk/internal/config"
	"llmdesk/pkg/auth"
)

// DataDir is bound to the root --data-dir flag; empty means config.DefaultDataDir()
var DataDir string

// SecretFileName holds the bridge JWT signing secret inside the data directory
const SecretFileName = "jwt.secret"

func resolveDataDir() (string, error) {
	if DataDir != "" {
		return DataDir, nil
	}
	return config.DefaultDataDir()
}

func loadConfig() (*config.AppConfig, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func localJWTAuth(cfg *config.AppConfig) (*auth.LocalJWTAuth, error) {
	secret, err := auth.LoadOrCreateSecret(filepath.Join(cfg.DataDir, SecretFileName))
	if err != nil {
		return nil, err
	}
	return auth.NewLocalJWTAuth(secret, time.Duration(cfg.Server.TokenTTLMinutes)*time.Minute)
}

// newClient returns a bridge client for the locally configured server,
// minting a token from the shared secret when auth is enabled
func newClient(cfg *config.AppConfig) (*client.Client, error) {
	var opts []client.Option
	if cfg.Server.AuthEnabled {
		jwtAuth, err := localJWTAuth(cfg)
		if err != nil {
			return nil, err
		}
		token, _, err := jwtAuth.GenerateToken("cli")
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithToken(token))
	}
	return client.New(cfg.BaseURL(), opts...), nil
}
