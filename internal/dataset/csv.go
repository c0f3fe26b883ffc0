package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"weaponforge/internal/model"
)

// Header is the column layout of the training CSV.
var Header = []string{
	model.FieldName,
	model.FieldDamage,
	model.FieldWeight,
	model.FieldUpgrade,
	model.FieldPerk,
	model.FieldType,
	model.FieldCategory,
	"Price",
}

// ReadCSV reads a training set. Columns are located by header name, so
// extra columns and any column order are accepted.
func ReadCSV(r io.Reader) ([]model.TrainingRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(head))
	for i, h := range head {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range Header {
		if _, ok := cols[strings.ToLower(h)]; !ok {
			return nil, fmt.Errorf("missing column %q", h)
		}
	}

	var rows []model.TrainingRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := rowFromCells(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

func WriteCSV(w io.Writer, rows []model.TrainingRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Name,
			strconv.Itoa(r.Damage),
			strconv.FormatFloat(r.Weight, 'f', -1, 64),
			r.Upgrade,
			r.Perk,
			r.Type,
			r.Category,
			strconv.FormatFloat(r.Price, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
