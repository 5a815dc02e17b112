package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asterisk-app/asterisk/internal/config"
	"github.com/asterisk-app/asterisk/internal/match"
	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/plan"
	"github.com/asterisk-app/asterisk/internal/semantic"
	"github.com/asterisk-app/asterisk/internal/vault"
)

var (
	planSnapshotPath string
	planSemantic     bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build a fill plan for a captured form snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := "vault"
		if planSemantic {
			mode = "semantic"
		}
		if err := cfg.Validate(mode); err != nil {
			return err
		}

		snapshot, err := loadSnapshot(planSnapshotPath)
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

		if planSemantic && len(p.UnmatchedFieldIDs) > 0 {
			delegate := newDelegate(cfg)
			recs, failures := semantic.Analyze(cmd.Context(), delegate, fields, items, p)
			for _, f := range failures {
				zap.L().Warn("semantic analysis failed for field", zap.String("field_id", f.FieldID), zap.Error(f.Err))
			}
			p = plan.Merge(p, fields, recs, nil)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

// loadSnapshot reads a form snapshot JSON file, as exported by the extension
// or fetched from the bridge.
func loadSnapshot(path string) (*model.FormSnapshot, error) {
	if path == "" {
		return nil, eris.New("--snapshot is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read snapshot %s", path)
	}
	var snapshot model.FormSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, eris.Wrap(err, "parse snapshot")
	}
	if snapshot.Fingerprint.Hash == "" {
		snapshot.Fingerprint = model.ComputeFingerprint(snapshot.Fields)
	}
	return &snapshot, nil
}

// buildPlan runs the deterministic tiers over a snapshot, honoring a rule
// table override from config.
func buildPlan(cmd *cobra.Command, snapshot *model.FormSnapshot, items []vault.Item) (*model.FillPlan, []model.FieldDescriptor, error) {
	var rules []match.Rule
	if cfg.Match.RulesPath != "" {
		loaded, err := match.LoadRules(cfg.Match.RulesPath)
		if err != nil {
			return nil, nil, err
		}
		rules = loaded
	}

	metrics := &plan.Metrics{}
	p := plan.Build(snapshot.Fields, items, plan.Options{
		Fingerprint: snapshot.Fingerprint.Hash,
		Rules:       rules,
		Metrics:     metrics,
	})
	zap.L().Info("plan built",
		zap.String("domain", snapshot.Domain),
		zap.Int("fields", metrics.FieldsSeen),
		zap.Float64("match_rate", metrics.MatchRate()),
		zap.Duration("duration", metrics.BuildDuration),
	)
	return p, snapshot.Fields, nil
}

func newDelegate(cfg *config.Config) semantic.Delegate {
	return semantic.NewAnthropic(cfg.Anthropic.Key, semantic.AnthropicConfig{
		Model:             cfg.Anthropic.Model,
		MaxTokens:         cfg.Anthropic.MaxTokens,
		RequestsPerSecond: cfg.Anthropic.RequestsPerSecond,
	})
}

func init() {
	planCmd.Flags().StringVar(&planSnapshotPath, "snapshot", "", "path to a form snapshot JSON file")
	planCmd.Flags().BoolVar(&planSemantic, "semantic", false, "run the semantic tier on unmatched fields")
	rootCmd.AddCommand(planCmd)
}
