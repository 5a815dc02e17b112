package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asterisk-app/asterisk/internal/audit"
	"github.com/asterisk-app/asterisk/internal/config"
	"github.com/asterisk-app/asterisk/internal/vault"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "asterisk",
	Short: "Local form-fill vault host",
	Long:  "Hosts the fill core: vault storage, matching, audit log, and the local bridge the browser extension talks to.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openVault constructs the vault store selected by config.
func openVault() (vault.Store, error) {
	if err := cfg.Validate("vault"); err != nil {
		return nil, err
	}
	switch cfg.Vault.Driver {
	case "", "memory":
		return vault.NewMemory(), nil
	case "sqlite":
		return vault.NewSQLite(cfg.Vault.Path)
	default:
		return nil, eris.Errorf("unknown vault driver %q", cfg.Vault.Driver)
	}
}

// openAudit constructs the audit log backend selected by config.
func openAudit(ctx context.Context) (audit.Log, error) {
	if err := cfg.Validate("audit"); err != nil {
		return nil, err
	}
	switch cfg.Audit.Driver {
	case "", "jsonl":
		return audit.NewJSONL(cfg.Audit.Path), nil
	case "sqlite":
		return audit.NewSQLite(cfg.Audit.Path)
	case "postgres":
		return audit.NewPostgres(ctx, cfg.Audit.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown audit driver %q", cfg.Audit.Driver)
	}
}
