package main

import (
	"github.com/spf13/cobra"

	"betledger/internal/tui"
)

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive terminal dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.WithField("gateway", a.cfg.Gateway.BaseURL).Info("opening dashboard")
			return tui.Run(cmd.Context(), a.controller())
		},
	}
}
