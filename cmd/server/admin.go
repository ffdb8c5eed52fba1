package main

import (
	"fmt"

	"github.com/spf13/cobra"

	mydb "storefront/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed permissions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if a.db == nil {
				return fmt.Errorf("migrate needs postgres, unset server.memory_store")
			}
			if err := mydb.Migrate(cmd.Context(), a.db); err != nil {
				return err
			}
			a.log.Info().Msg("schema migrated")
			return nil
		},
	}
}

func newCreateSuperuserCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an active staff superuser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			u, err := a.accounts.CreateSuperuser(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "superuser %s created (id %d)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login e-mail")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newGrantModeratorCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "grant-moderator",
		Short: "Grant the product moderation permissions to a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			u, err := a.accounts.GrantModerator(cmd.Context(), email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now holds %d permissions\n", u.Email, len(u.Permissions))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user e-mail")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newDeleteUserCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "delete-user",
		Short: "Delete a user; its products stay without an owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.accounts.DeleteUser(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s deleted\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user e-mail")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
