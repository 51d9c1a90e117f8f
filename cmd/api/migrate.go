package main

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/njprem/Session_Auth_BackEnd/internal/config"
	"github.com/njprem/Session_Auth_BackEnd/internal/repository/postgres"
)

func newMigrateCommand() *cobra.Command {
	var direction string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := postgres.Migrate(config.LoadDatabaseURL(), direction)
			if errors.Is(err, postgres.ErrNoChange) {
				logrus.WithField("direction", direction).Info("schema already up to date")
				return nil
			}
			if err != nil {
				return err
			}
			logrus.WithField("direction", direction).Info("migrations applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "up", "migration direction: up or down")
	return cmd
}
