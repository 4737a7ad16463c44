package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"betledger/internal/gateway"
	"betledger/internal/method"
)

func newMethodsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "methods",
		Short: "List, add, rename and delete betting methods",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List methods",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				methods, err := method.NewRegistry(a.client()).List(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s", gateway.UserMessage(err, "could not load methods"))
				}
				t := table.New().Border(lipgloss.NormalBorder()).Headers("ID", "Name")
				for _, m := range methods {
					t.Row(strconv.FormatInt(m.ID, 10), m.Name)
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create a method",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctrl := a.controller()
				if err := ctrl.SetMethodName(strings.Join(args, " ")); err != nil {
					return err
				}
				created, err := ctrl.SubmitMethod(cmd.Context())
				if err != nil {
					return lastError(ctrl, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "method %d %q created\n", created.ID, created.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a method",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				ctrl := a.controller()
				if err := ctrl.EditMethod(method.Method{ID: id}); err != nil {
					return err
				}
				if err := ctrl.SetMethodName(strings.Join(args[1:], " ")); err != nil {
					return err
				}
				renamed, err := ctrl.SubmitMethod(cmd.Context())
				if err != nil {
					return lastError(ctrl, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "method %d renamed to %q\n", renamed.ID, renamed.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a method that no bet uses",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				ctrl := a.controller()
				if err := ctrl.DeleteMethod(cmd.Context(), id); err != nil {
					return lastError(ctrl, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "method %d deleted\n", id)
				return nil
			},
		},
	)
	return cmd
}
