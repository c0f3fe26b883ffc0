package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"weaponforge/internal/extractor"
)

var extractMode string

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract a weapon record from generated text (stdin when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		raw, err := io.ReadAll(in)
		if err != nil {
			return err
		}

		mode := extractMode
		if !cmd.Flags().Changed("mode") {
			mode = cfg.ExtractMode
		}
		ex, err := newExtractor(mode)
		if err != nil {
			return err
		}

		rec, err := ex.Extract(string(raw))
		if err != nil {
			var xerr *extractor.ExtractionError
			if errors.As(err, &xerr) && len(xerr.Parsed) > 0 {
				b, _ := json.MarshalIndent(xerr.Parsed, "", "  ")
				fmt.Fprintf(os.Stderr, "parsed so far:\n%s\n", b)
			}
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractMode, "mode", "permissive", "Extraction mode: permissive or strict")
	rootCmd.AddCommand(extractCmd)
}
