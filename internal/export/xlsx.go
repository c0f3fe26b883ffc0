// Package export writes stored weapons to spreadsheets.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"weaponforge/internal/model"
)

const sheet = "Weapons"

var headers = []string{
	"ID",
	"Name",
	"Damage",
	"Weight",
	"Upgrade",
	"Perk",
	"Type",
	"Category",
	"Predicted Price",
	"Model",
	"Created At",
}

// WeaponsXLSX returns a workbook with one "Weapons" sheet: a header row and
// one row per document, in order.
func WeaponsXLSX(docs []model.WeaponDocument, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, d := range docs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, d.ID)
		write(2, d.Name)
		write(3, d.Damage)
		write(4, d.Weight)
		write(5, d.Upgrade)
		write(6, d.Perk)
		write(7, d.Type)
		write(8, d.Category)
		write(9, d.PredictedPrice)
		write(10, d.Model)
		if !d.CreatedAt.IsZero() {
			write(11, d.CreatedAt.UTC().Format(time.RFC3339))
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // id
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "E", "F", 24)
	_ = f.SetColWidth(sheet, "K", "K", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func WriteXLSX(path string, docs []model.WeaponDocument, logger *slog.Logger) error {
	b, err := WeaponsXLSX(docs, logger)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
