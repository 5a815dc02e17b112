package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/asterisk-app/asterisk/internal/policy"
	"github.com/asterisk-app/asterisk/internal/vault"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage vault items",
}

var (
	vaultSetLabel    string
	vaultSetCategory string
)

var vaultSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store or update a vault item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openVault()
		if err != nil {
			return err
		}
		defer store.Close()

		label := vaultSetLabel
		if label == "" {
			label = args[0]
		}
		now := time.Now().UTC()
		item := vault.NewItem(args[0], args[1], label, vault.Category(vaultSetCategory), vault.Provenance{
			Source:     vault.SourceUserEntered,
			Timestamp:  now,
			Confidence: 1.0,
		}, now)

		if err := store.Set(cmd.Context(), item); err != nil {
			return err
		}
		fmt.Printf("stored %s\n", item.Key)
		return nil
	},
}

var vaultGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one vault item with a redacted value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openVault()
		if err != nil {
			return err
		}
		defer store.Close()

		item, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if item == nil {
			return eris.Errorf("no item %s", args[0])
		}

		item.Value, _ = policy.Redact(item.Value, policy.IsSensitive(item.Label), 0)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(item)
	},
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vault items with redacted values",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openVault()
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, item := range items {
			redacted, _ := policy.Redact(item.Value, policy.IsSensitive(item.Label), 0)
			fmt.Printf("%-24s %-10s %-24s %s\n", item.Key, item.Category, item.Label, redacted)
		}
		return nil
	},
}

var vaultDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a vault item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openVault()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return eris.Wrapf(err, "delete %s", args[0])
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func init() {
	vaultSetCmd.Flags().StringVar(&vaultSetLabel, "label", "", "display label (defaults to key)")
	vaultSetCmd.Flags().StringVar(&vaultSetCategory, "category", string(vault.CategoryCustom), "category: identity|contact|address|financial|custom")
	vaultCmd.AddCommand(vaultSetCmd, vaultGetCmd, vaultListCmd, vaultDeleteCmd)
	rootCmd.AddCommand(vaultCmd)
}
