package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weaponforge/internal/reprice"
)

var (
	repriceLimit   int
	repriceWorkers int
)

var repriceCmd = &cobra.Command{
	Use:   "reprice",
	Short: "Recompute the predicted price of stored weapons with the current model",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !cmd.Flags().Changed("workers") {
			repriceWorkers = cfg.WorkerCount
		}

		enc, pred, err := newPricing()
		if err != nil {
			return fmt.Errorf("predictor: %w", err)
		}
		store, closeStore, err := openWeaponStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		docs, err := store.List(ctx, repriceLimit)
		if err != nil {
			return err
		}
		logger.Info("reprice.start", "weapons", len(docs), "workers", repriceWorkers)

		res := reprice.Run(ctx, docs, enc, pred, store, repriceWorkers, logger, nil)
		fmt.Printf("updated %d, failed %d\n", res.Updated, res.Failed)
		if res.Failed > 0 {
			return fmt.Errorf("%d weapons could not be repriced", res.Failed)
		}
		return nil
	},
}

func init() {
	repriceCmd.Flags().IntVar(&repriceLimit, "limit", 1000, "Maximum number of stored weapons to reprice")
	repriceCmd.Flags().IntVar(&repriceWorkers, "workers", 4, "Number of concurrent workers")
	rootCmd.AddCommand(repriceCmd)
}
