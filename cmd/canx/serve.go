package main

import (
	"canx-backend/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func serveCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			opts := []fx.Option{app.Options(cfg)}
			if !verbose {
				opts = append(opts, fx.NopLogger)
			}

			fxApp := fx.New(opts...)
			if err := fxApp.Err(); err != nil {
				return err
			}
			// blocks until SIGINT or SIGTERM
			fxApp.Run()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log dependency injection events")

	return cmd
}
