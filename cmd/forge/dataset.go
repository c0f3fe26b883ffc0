package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"weaponforge/internal/dataset"
	"weaponforge/internal/predictor"
)

var (
	importOut    string
	trainOut     string
	trainFields  []string
	trainDrop    bool
	trainRidge   float64
	trainOrdinal bool
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Build the training set and fit the price model",
}

var datasetImportCmd = &cobra.Command{
	Use:   "import <url|file.html>",
	Short: "Scrape weapon tables from an HTML page into a training CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]
		var in io.ReadCloser
		var err error
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			in, err = dataset.Fetch(cmd.Context(), src)
		} else {
			in, err = os.Open(src)
		}
		if err != nil {
			return err
		}
		defer in.Close()

		rows, skipped, err := dataset.ParseHTML(in)
		if err != nil {
			return err
		}
		logger.Info("dataset.parsed", "source", src, "rows", len(rows), "skipped", skipped)
		if len(rows) == 0 {
			return fmt.Errorf("no weapon rows found in %s", src)
		}

		out, err := os.Create(importOut)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := dataset.WriteCSV(out, rows); err != nil {
			return err
		}
		fmt.Printf("wrote %d weapons to %s\n", len(rows), importOut)
		return nil
	},
}

var datasetTrainCmd = &cobra.Command{
	Use:   "train <weapons.csv>",
	Short: "Fit a linear price model on a training CSV and write it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		rows, err := dataset.ReadCSV(f)
		if err != nil {
			return err
		}

		var enc *predictor.Encoder
		if trainOrdinal {
			cols := append([]string{"Damage", "Weight"}, trainFields...)
			enc = predictor.NewEncoder(cols, predictor.OrdinalCategories(rows, trainFields))
		} else {
			enc = predictor.NewEncoder(predictor.TrainingColumns(rows, trainFields, trainDrop), nil)
		}

		lm, err := predictor.Fit(rows, enc, trainRidge)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(lm, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(trainOut, b, 0o644); err != nil {
			return err
		}
		logger.Info("dataset.trained", "rows", len(rows), "columns", len(lm.Columns), "out", trainOut)
		fmt.Printf("fitted %d columns on %d rows, wrote %s\n", len(lm.Columns), len(rows), trainOut)
		return nil
	},
}

func init() {
	datasetImportCmd.Flags().StringVarP(&importOut, "out", "o", "Skyrim_Weapons.csv", "Output CSV file")

	datasetTrainCmd.Flags().StringVarP(&trainOut, "out", "o", "model.json", "Output model file")
	datasetTrainCmd.Flags().StringSliceVar(&trainFields, "fields", []string{"Type", "Category"}, "Categorical fields to encode")
	datasetTrainCmd.Flags().BoolVar(&trainDrop, "drop-first", true, "Drop the first category of every one-hot encoded field")
	datasetTrainCmd.Flags().BoolVar(&trainOrdinal, "ordinal", false, "Encode categorical fields as ordinal indexes instead of one-hot columns")
	datasetTrainCmd.Flags().Float64Var(&trainRidge, "ridge", 1e-6, "L2 penalty added to the normal equations")

	datasetCmd.AddCommand(datasetImportCmd, datasetTrainCmd)
	rootCmd.AddCommand(datasetCmd)
}
