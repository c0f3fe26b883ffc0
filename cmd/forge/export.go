package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weaponforge/internal/export"
)

var (
	exportOut   string
	exportLimit int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored weapons to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, closeStore, err := openWeaponStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		docs, err := store.List(ctx, exportLimit)
		if err != nil {
			return err
		}
		if err := export.WriteXLSX(exportOut, docs, logger); err != nil {
			return err
		}
		fmt.Printf("wrote %d weapons to %s\n", len(docs), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "weapons.xlsx", "Output file")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 1000, "Maximum number of weapons to export")
	rootCmd.AddCommand(exportCmd)
}
