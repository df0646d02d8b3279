package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"freshgrocer/internal/repos"
	"freshgrocer/internal/services"
)

var newUser services.RegisterInput

var createUserCmd = &cobra.Command{
	Use:     "create-user",
	Short:   "Register a customer or farmer account",
	Example: `  freshgrocer create-user --username gwen --password 'long secret' --role FARMER`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(false)
		if err != nil {
			return err
		}
		defer db.Close()

		newUser.Password2 = newUser.Password
		auth := services.NewAuthService(repos.NewUserRepo(db), cfg.JWTSecret)
		u, err := auth.Register(cmd.Context(), newUser)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", u.Username, u.Role, u.ID)
		return nil
	},
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&newUser.Username, "username", "", "login name")
	f.StringVar(&newUser.Email, "email", "", "contact email")
	f.StringVar(&newUser.Password, "password", "", "password (8-72 characters)")
	f.StringVar(&newUser.Role, "role", "CUSTOMER", "CUSTOMER or FARMER")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createUserCmd)
}
