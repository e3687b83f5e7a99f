package main

import (
	"encoding/json"
	"io"

	"github.com/Harshitk-cp/marketmind/internal/bootstrap"
	"github.com/Harshitk-cp/marketmind/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli holds state shared by every subcommand. The runtime is opened lazily so
// `version` and `--help` work without a store.
type cli struct {
	logger *zap.Logger
	rt     *bootstrap.Runtime
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:   "marketmind",
		Short: "Operate the market belief engine against its snapshot store",
		Long: `marketmind runs update cycles and inspects the belief state directly
against the configured snapshot store (STORE_BACKEND), using the same engine
as the HTTP server.

Examples:
  marketmind cycle --file batch.json
  marketmind hypotheses --status ACTIVE
  marketmind export > state.yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return err
			}
			logger, err := bootstrap.NewLogger(config.LogLevel())
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
	}

	root.AddCommand(
		newCycleCmd(c),
		newSnapshotCmd(c),
		newExportCmd(c),
		newHypothesesCmd(c),
		newRulesCmd(c),
		newMistakesCmd(c),
		newReviewCmd(c),
		newVersionCmd(),
	)
	return root, c
}

// close runs after Execute whether or not the command failed.
func (c *cli) close() {
	if c.rt != nil {
		c.rt.Close()
		c.rt = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func (c *cli) runtime(cmd *cobra.Command) (*bootstrap.Runtime, error) {
	if c.rt != nil {
		return c.rt, nil
	}
	rt, err := bootstrap.New(cmd.Context(), c.logger)
	if err != nil {
		return nil, err
	}
	c.rt = rt
	return rt, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
