package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asterisk-app/asterisk/internal/audit"
	"github.com/asterisk-app/asterisk/internal/fill"
	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/resilience"
	"github.com/asterisk-app/asterisk/internal/review"
	"github.com/asterisk-app/asterisk/internal/vault"
)

var (
	applySnapshotPath string
	applyFields       string
	applyOnlySafe     bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Review a plan and queue the approved fills on the bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		snapshot, err := loadSnapshot(applySnapshotPath)
		if err != nil {
			return err
		}

		store, err := openVault()
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		p, fields, err := buildPlan(cmd, snapshot, items)
		if err != nil {
			return err
		}

		session := review.NewSession()
		if err := session.Open(p, fields); err != nil {
			return err
		}
		if err := applySelection(session); err != nil {
			return err
		}

		approved, err := session.ConfirmApply()
		if err != nil {
			return err
		}
		if len(approved) == 0 {
			session.Close()
			fmt.Println("nothing selected, nothing queued")
			return nil
		}

		command := fill.NewEmitter(nil).Build(snapshot.Domain, snapshot.URL, approved, p, items)
		if err := queueCommand(cfg.Bridge.Listen, command); err != nil {
			_ = session.ApplyFailed()
			return err
		}
		if err := session.ApplySucceeded(); err != nil {
			return err
		}

		if err := recordAudit(cmd, session, snapshot, approved, items); err != nil {
			return err
		}
		if err := markItemsUsed(cmd, store, p, approved, items); err != nil {
			zap.L().Warn("could not update vault usage metadata", zap.Error(err))
		}

		fmt.Printf("queued command %s with %d fill(s)\n", command.ID, len(command.Fills))
		return nil
	},
}

// applySelection narrows the session's default selection per the flags.
func applySelection(session *review.Session) error {
	if applyOnlySafe {
		return session.ToggleOnlySafe()
	}
	if applyFields == "" {
		return nil
	}

	wanted := make(map[string]bool)
	for _, id := range strings.Split(applyFields, ",") {
		if id = strings.TrimSpace(id); id != "" {
			wanted[id] = true
		}
	}
	for _, view := range session.Fields() {
		id := view.Recommendation.FieldID
		if view.Selected != wanted[id] {
			if err := session.ToggleField(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// queueCommand posts the fill command to the running bridge.
func queueCommand(listen string, command *model.FillCommand) error {
	body, err := json.Marshal(command)
	if err != nil {
		return eris.Wrap(err, "marshal fill command")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("bridge", "queue_command")
	return resilience.Do(context.Background(), retry, func(context.Context) error {
		resp, err := client.Post("http://"+listen+"/v1/fill-commands", "application/json", bytes.NewReader(body))
		if err != nil {
			return eris.Wrap(err, "queue fill command (is `asterisk serve` running?)")
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return eris.Errorf("bridge rejected fill command: %s", resp.Status)
		}
		return nil
	})
}

// recordAudit appends one redaction-safe entry covering every reviewed field.
func recordAudit(cmd *cobra.Command, session *review.Session, snapshot *model.FormSnapshot, approved []string, items []vault.Item) error {
	log, err := openAudit(cmd.Context())
	if err != nil {
		return err
	}
	defer log.Close()

	applied := make(map[string]bool, len(approved))
	for _, id := range approved {
		applied[id] = true
	}
	valueByKey := make(map[string]string, len(items))
	for _, it := range items {
		valueByKey[it.Key] = it.Value
	}
	labelByID := make(map[string]string, len(snapshot.Fields))
	kindByID := make(map[string]string, len(snapshot.Fields))
	for _, f := range snapshot.Fields {
		labelByID[f.ID] = f.Label
		kindByID[f.ID] = string(f.Type)
	}

	var auditItems []audit.Item
	for _, view := range session.Fields() {
		rec := view.Recommendation
		newValue := ""
		if applied[rec.FieldID] {
			newValue = valueByKey[rec.VaultKey]
		}
		auditItems = append(auditItems, audit.NewItem(audit.ItemInput{
			FieldID:       rec.FieldID,
			Label:         labelByID[rec.FieldID],
			Kind:          kindByID[rec.FieldID],
			Confidence:    rec.Confidence,
			VaultKey:      rec.VaultKey,
			Applied:       applied[rec.FieldID],
			UserConfirmed: review.UserConfirmed(view),
			NewValue:      newValue,
			Notes:         rec.Reason,
		}))
	}

	entry := audit.BuildEntry(snapshot.URL, snapshot.Domain, snapshot.Fingerprint.Hash, auditItems, time.Now())
	return log.Append(cmd.Context(), entry)
}

// markItemsUsed bumps usage metadata on every vault item that was applied.
func markItemsUsed(cmd *cobra.Command, store vault.Store, p *model.FillPlan, approved []string, items []vault.Item) error {
	byKey := make(map[string]vault.Item, len(items))
	for _, it := range items {
		byKey[it.Key] = it
	}
	now := time.Now().UTC()
	for _, id := range approved {
		rec := p.Recommended(id)
		if rec == nil {
			continue
		}
		item, ok := byKey[rec.VaultKey]
		if !ok {
			continue
		}
		item.MarkUsed(now)
		byKey[rec.VaultKey] = item
		if err := store.Set(cmd.Context(), item); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	applyCmd.Flags().StringVar(&applySnapshotPath, "snapshot", "", "path to a form snapshot JSON file")
	applyCmd.Flags().StringVar(&applyFields, "fields", "", "comma-separated field ids to apply (default: review defaults)")
	applyCmd.Flags().BoolVar(&applyOnlySafe, "only-safe", false, "apply only safe, non-sensitive fields")
	rootCmd.AddCommand(applyCmd)
}
