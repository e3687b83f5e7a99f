package main

import (
	"fmt"
	"strings"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/Harshitk-cp/marketmind/internal/store"
	"github.com/spf13/cobra"
)

func newSnapshotCmd(c *cli) *cobra.Command {
	var seq int64

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the current snapshot, or a historical one with --seq",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			var snap *domain.Snapshot
			if seq > 0 {
				snap, err = rt.Engine.SnapshotAt(cmd.Context(), seq)
			} else {
				snap, err = rt.Engine.CurrentSnapshot(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), store.NewDocument(snap))
		},
	}

	cmd.Flags().Int64Var(&seq, "seq", 0, "Cycle sequence to load (default: latest)")
	return cmd
}

func newExportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the current snapshot as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			snap, err := rt.Engine.CurrentSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			out, err := store.EncodeYAML(snap)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newHypothesesCmd(c *cli) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "hypotheses",
		Short: "List hypotheses in one lifecycle status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status = strings.ToUpper(status)
			if !domain.ValidHypothesisStatus(status) {
				return fmt.Errorf("invalid status %q (valid: FORMING, ACTIVE, INVALIDATED, RETIRED)", status)
			}
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			hs, err := rt.Engine.HypothesesByStatus(cmd.Context(), domain.HypothesisStatus(status))
			if err != nil {
				return err
			}
			for _, h := range hs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-6s  quiet=%d  %s\n", h.ID, h.Confidence, h.QuietCycles, h.Statement)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", string(domain.StatusActive), "Lifecycle status")
	return cmd
}

func newRulesCmd(c *cli) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List active rules, optionally for one category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *domain.RootCause
			if category != "" {
				if !domain.ValidRootCause(category) {
					return fmt.Errorf("invalid category %q", category)
				}
				rc := domain.RootCause(category)
				filter = &rc
			}
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			rules, err := rt.Engine.ActiveRules(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rules)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Root cause category")

	cmd.AddCommand(newRecordRuleCmd(c))
	return cmd
}

func newRecordRuleCmd(c *cli) *cobra.Command {
	var draft domain.RuleDraft

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a rule outside an observation cycle",
		Long: `Record a rule. Every ACTIVE rule of the same category that the new rule
strictly generalizes is graduated.

Example:
  marketmind rules record --category macro --statement "Check DXY before calling risk-on" --condition signal:macro`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			rule, graduated, err := rt.Engine.RecordRule(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"rule": rule, "graduated": graduated})
		},
	}

	cmd.Flags().StringVar((*string)(&draft.DomainCategory), "category", "", "Root cause category")
	cmd.Flags().StringVar(&draft.Statement, "statement", "", "Rule statement")
	cmd.Flags().StringSliceVar(&draft.Condition, "condition", nil, "Condition qualifiers, e.g. signal:macro,subject:dxy")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("statement")
	_ = cmd.MarkFlagRequired("condition")
	return cmd
}

func newMistakesCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "mistakes",
		Short: "Print the mistake log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			ms, err := rt.Engine.Mistakes(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ms)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records")
	return cmd
}

func newReviewCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Run the self-review pass and enqueue advisory flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			flags, err := rt.Review.Review(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range flags {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s  %s\n", f.Kind, f.TargetID, f.Note)
			}
			return nil
		},
	}
}
