package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/spf13/cobra"
)

func newCycleCmd(c *cli) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one update cycle with an observation batch",
		Long: `Run one update cycle. The observation batch is read as JSON from --file,
or from stdin when --file is "-" or omitted. Prints the cycle report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open batch: %w", err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			var batch domain.ObservationBatch
			dec := json.NewDecoder(r)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&batch); err != nil {
				return fmt.Errorf("%w: decode batch: %v", domain.ErrInvalidObservation, err)
			}

			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			report, err := rt.Engine.RunCycle(cmd.Context(), &batch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Observation batch JSON file (default: stdin)")
	return cmd
}
