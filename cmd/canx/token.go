package main

import (
	"fmt"

	"canx-backend/internal/auth"
	"canx-backend/internal/model"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		userID string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !model.Role(role).Valid() {
				return fmt.Errorf("role %q is not one of user, vendor, admin", role)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tokens, err := auth.NewTokenManager(&cfg.Auth)
			if err != nil {
				return err
			}

			token, err := tokens.Issue(userID, model.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the token subject")
	cmd.Flags().StringVar(&role, "role", string(model.RoleUser), "user, vendor or admin")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
