package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"betledger/internal/config"
	"betledger/internal/controller"
	"betledger/internal/gateway"
	"betledger/internal/logger"
)

// app carries what every subcommand needs after flags are parsed.
type app struct {
	configPath string
	apiURL     string
	logLevel   string

	cfg *config.Config
	log *logrus.Entry
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "betledger",
		Short:         "Track sports bets, methods and their statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (TOML or YAML; default "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "gateway base URL (overrides gateway.base_url)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(a),
		newBetsCmd(a),
		newMethodsCmd(a),
		newStatsCmd(a),
		newDashboardCmd(a),
	)
	return root
}

// setup loads config and initialises logging. Only the server logs to the
// console; the other commands write logs to the configured file, if any.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.Gateway.BaseURL = a.apiURL
	}
	if a.logLevel != "" {
		cfg.General.LogLevel = a.logLevel
	}

	quiet := cmd.Name() != "serve"
	if _, err := logger.Init(cfg.General, logger.Options{Quiet: quiet}); err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}

	a.cfg = cfg
	a.log = logger.Component("cli")
	return nil
}

func (a *app) client() *gateway.Client {
	return gateway.NewClient(a.cfg.Gateway)
}

func (a *app) controller() *controller.Controller {
	return controller.New(a.client(), a.cfg.UI)
}
