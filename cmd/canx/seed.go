package main

import (
	"fmt"

	"canx-backend/internal/app"
	"canx-backend/internal/client"
	"canx-backend/internal/seed"
	"canx-backend/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load tier tables, categories and admin accounts from a YAML file",
		Example: `  canx seed --file seed.yaml
  canx seed -f seed.yaml --env-file .env.staging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := seed.Load(file)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var (
				db        *gorm.DB
				users     service.UserService
				tiers     service.TierService
				catalogue service.CatalogueService
			)
			fxApp := fx.New(app.Core(cfg), fx.NopLogger, fx.Populate(&db, &users, &tiers, &catalogue))
			ctx := cmd.Context()
			if err := fxApp.Start(ctx); err != nil {
				return err
			}
			defer fxApp.Stop(ctx)

			if err := client.Migrate(db); err != nil {
				return err
			}

			res, err := seed.Apply(ctx, data, users, tiers, catalogue)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, u := range res.Admins {
				fmt.Fprintf(out, "admin %s id=%s\n", u.Email, u.ID)
			}
			fmt.Fprintf(out, "cash discounts: %d, interests: %d, categories: %d\n",
				res.CashDiscounts, res.Interests, res.Categories)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "seed file")

	return cmd
}
