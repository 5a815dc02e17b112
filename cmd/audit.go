package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the fill audit log",
}

var (
	auditListLimit  int
	auditListCursor int
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := openAudit(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Close()

		result, err := log.List(cmd.Context(), auditListCursor, auditListLimit)
		if err != nil {
			return err
		}
		for _, entry := range result.Items {
			fmt.Printf("%s  %s  %-24s planned=%d applied=%d blocked=%d reviewed=%d\n",
				entry.ID, entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.Domain,
				entry.Summary.PlannedCount, entry.Summary.AppliedCount,
				entry.Summary.BlockedCount, entry.Summary.ReviewedCount)
		}
		if result.NextCursor != nil {
			fmt.Printf("next cursor: %d\n", *result.NextCursor)
		}
		return nil
	},
}

var auditShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one audit entry as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := openAudit(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Close()

		entry, err := log.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if entry == nil {
			fmt.Fprintf(os.Stderr, "no entry %s\n", args[0])
			return nil
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	},
}

var auditClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all audit entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := openAudit(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Close()

		if err := log.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("audit log cleared")
		return nil
	},
}

func init() {
	auditListCmd.Flags().IntVar(&auditListLimit, "limit", 50, "entries per page")
	auditListCmd.Flags().IntVar(&auditListCursor, "cursor", 0, "pagination cursor")
	auditCmd.AddCommand(auditListCmd, auditShowCmd, auditClearCmd)
	rootCmd.AddCommand(auditCmd)
}
