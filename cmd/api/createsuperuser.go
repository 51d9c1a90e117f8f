package main

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/njprem/Session_Auth_BackEnd/internal/config"
	"github.com/njprem/Session_Auth_BackEnd/internal/repository/postgres"
	"github.com/njprem/Session_Auth_BackEnd/internal/service"
)

type superuserOptions struct {
	email     string
	firstName string
	lastName  string
	password  string
}

func newCreateSuperuserCommand() *cobra.Command {
	opts := &superuserOptions{}
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an active staff account with every permission",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.email) == "" || opts.password == "" {
				return errors.New("--email and --password are required")
			}
			db, err := postgres.New(config.LoadDatabaseURL(), postgres.PoolOptions{MaxOpenConns: 2})
			if err != nil {
				return err
			}
			defer db.Close()

			users := service.NewUserService(postgres.NewUserRepo(db), postgres.NewMediaRepo(db), nil, 0)
			user, err := users.CreateSuperuser(cmd.Context(), service.RegisterInput{
				Email:     opts.email,
				Password:  opts.password,
				FirstName: opts.firstName,
				LastName:  opts.lastName,
			})
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email, "name": user.FullName()}).Info("superuser created")
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&opts.lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&opts.password, "password", "", "account password")
	return cmd
}
