package cli

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"quiz-vault/internal/storage"
)

// NewSeedCmd initializes storage with the default dataset.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed empty storage with the default questions and answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	kv, closeKV, err := openKV(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeKV()

	if err := storage.NewStore(kv).Initialize(ctx); err != nil {
		return err
	}
	log.Printf("storage (%s) initialized", cfg.Storage.Driver)
	return nil
}
