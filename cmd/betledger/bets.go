package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"betledger/internal/bet"
	"betledger/internal/controller"
	"betledger/internal/gateway"
	"betledger/internal/stats"
)

func newBetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bets",
		Short: "List, add, update and delete bets",
	}
	cmd.AddCommand(
		newBetsListCmd(a),
		newBetsAddCmd(a),
		newBetsUpdateCmd(a),
		newBetsDeleteCmd(a),
	)
	return cmd
}

func newBetsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bets, err := a.client().ListBets(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", gateway.UserMessage(err, "could not load bets"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), betTable(bets))
			return nil
		},
	}
}

func betTable(bets []bet.Bet) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Date/time", "Game", "Method", "Risk", "Profit/loss", "Return", "Status")
	for _, b := range bets {
		ret := stats.Unavailable
		if pct, ok := b.ReturnPct(); ok {
			ret = stats.Percent(&pct)
		}
		t.Row(
			strconv.FormatInt(b.ID, 10),
			b.Timestamp.Display(),
			b.Game,
			b.MethodName,
			stats.Money(&b.Risk),
			stats.Money(&b.ProfitLoss),
			ret,
			string(b.Status()),
		)
	}
	return t.String()
}

// betFlags are the bet fields settable from the command line.
type betFlags struct {
	in  bet.Input
	now bool
}

func (f *betFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in.Timestamp, "time", "", "date/time as "+bet.TimestampLayout)
	cmd.Flags().BoolVar(&f.now, "now", false, "use the current date/time")
	cmd.Flags().StringVar(&f.in.Game, "game", "", "game description")
	cmd.Flags().StringVar(&f.in.MethodID, "method", "", "method id")
	cmd.Flags().StringVar(&f.in.Risk, "risk", "", "amount risked")
	cmd.Flags().StringVar(&f.in.ProfitLoss, "pl", "", "profit (positive) or loss (negative)")
}

// apply overlays the flags the user actually set onto in.
func (f *betFlags) apply(cmd *cobra.Command, in bet.Input) bet.Input {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("time", &in.Timestamp, f.in.Timestamp)
	set("game", &in.Game, f.in.Game)
	set("method", &in.MethodID, f.in.MethodID)
	set("risk", &in.Risk, f.in.Risk)
	set("pl", &in.ProfitLoss, f.in.ProfitLoss)
	if f.now {
		in.Timestamp = bet.NowInput(time.Now())
	}
	return in
}

func newBetsAddCmd(a *app) *cobra.Command {
	var flags betFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a bet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := a.controller()
			if err := ctrl.SetBetInput(flags.apply(cmd, bet.Input{})); err != nil {
				return err
			}
			created, err := ctrl.SubmitBet(cmd.Context())
			if err != nil {
				return lastError(ctrl, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bet %d saved (%s)\n", created.ID, created.Status())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newBetsUpdateCmd(a *app) *cobra.Command {
	var flags betFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an existing bet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctrl := a.controller()
			if err := ctrl.RefreshBets(cmd.Context()); err != nil {
				return lastError(ctrl, err)
			}
			var current *bet.Bet
			for _, b := range ctrl.Bets() {
				if b.ID == id {
					current = &b
					break
				}
			}
			if current == nil {
				return fmt.Errorf("bet %d not found", id)
			}

			if err := ctrl.EditBet(*current); err != nil {
				return err
			}
			if err := ctrl.SetBetInput(flags.apply(cmd, ctrl.BetForm().Input)); err != nil {
				return err
			}
			updated, err := ctrl.SubmitBet(cmd.Context())
			if err != nil {
				return lastError(ctrl, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bet %d updated (%s)\n", updated.ID, updated.Status())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newBetsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a bet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctrl := a.controller()
			if err := ctrl.DeleteBet(cmd.Context(), id); err != nil {
				return lastError(ctrl, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bet %d deleted\n", id)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// lastError turns the controller's most recent error notification into the
// command's error, falling back to err.
func lastError(ctrl *controller.Controller, err error) error {
	notes := ctrl.Notifications()
	for i := len(notes) - 1; i >= 0; i-- {
		if notes[i].Level == controller.LevelError {
			return fmt.Errorf("%s", notes[i].Message)
		}
	}
	return err
}
