package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bridge access token",
	Long: `Print a bearer token for /api/bridge and /ws/events, signed with the
secret in the data directory. Useful for curl and for the UI dev server.`,
	RunE: runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Server.AuthEnabled {
		return fmt.Errorf("bridge authentication is disabled (server.auth_enabled: false)")
	}

	jwtAuth, err := localJWTAuth(cfg)
	if err != nil {
		return err
	}
	subject, _ := cmd.Flags().GetString("subject")
	token, expiresAt, err := jwtAuth.GenerateToken(subject)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

func init() {
	TokenCmd.Flags().String("subject", "ui", "Token subject")
}
