package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"betledger/internal/db"
	"betledger/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST gateway over SQLite or Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg.Server
			if addr != "" {
				cfg.Addr = addr
			}

			database, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(ctx, database); err != nil {
				return err
			}
			a.log.WithField("type", database.Dialect()).Info("database initialized")

			store := db.NewStore(database)
			added, err := store.SeedMethods(ctx, cfg.SeedMethods)
			if err != nil {
				return err
			}
			if added > 0 {
				a.log.WithField("count", added).Info("seeded methods")
			}

			a.log.WithFields(logrus.Fields{
				"addr":         cfg.Addr,
				"cors_origins": cfg.CORSOrigins,
			}).Info("starting gateway")
			if err := server.New(store, cfg).Run(ctx); err != nil {
				return err
			}
			a.log.Info("gateway stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
