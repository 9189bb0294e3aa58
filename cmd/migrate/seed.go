package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/waitwise/backend/internal/adapters/database"
	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/clients/postgres"
)

const resetStatement = `TRUNCATE TABLE appointments, clinics, users RESTART IDENTITY CASCADE`

func seedCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default clinics when none exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			client, err := connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			created, err := seed(ctx, client, reset)
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d clinics\n", created)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "truncate users, clinics and appointments first")
	return cmd
}

func seed(ctx context.Context, client *postgres.Client, reset bool) (int, error) {
	if reset {
		log.Warn().Msg("Truncating users, clinics and appointments before seeding")
		if _, err := client.DB().ExecContext(ctx, resetStatement); err != nil {
			return 0, fmt.Errorf("reset tables: %w", err)
		}
	}

	directory := services.NewClinicDirectoryService(database.NewClinicAdapter(client), log.Logger)
	return directory.SeedDefaults(ctx)
}
