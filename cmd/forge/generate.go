package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var generateNoStore bool

var generateCmd = &cobra.Command{
	Use:   "generate <base-name>...",
	Short: "Generate, price and store one weapon per base name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, cleanup, err := newService(ctx, nil, !generateNoStore)
		if err != nil {
			return err
		}
		defer cleanup()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, base := range args {
			doc, err := svc.Forge(ctx, base)
			if err != nil {
				return err
			}
			if err := enc.Encode(doc); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&generateNoStore, "no-store", false, "Do not persist generated weapons")
	rootCmd.AddCommand(generateCmd)
}
