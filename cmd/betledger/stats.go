package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"betledger/internal/gateway"
	"betledger/internal/stats"
)

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the statistics snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.client().Statistics(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", gateway.UserMessage(err, "could not load statistics"))
			}
			stats.LogSnapshot(a.log, snap)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			t := table.New().Border(lipgloss.NormalBorder())
			for _, line := range stats.Lines(snap) {
				t.Row(line.Label, line.Value)
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw snapshot as JSON")
	return cmd
}
