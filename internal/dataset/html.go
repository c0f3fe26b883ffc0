// Package dataset reads and writes the weapon training set: HTML tables
// scraped from a wiki page, and the CSV file the price model is fitted on.
package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"weaponforge/internal/model"
)

var defaultHTTPClient = &http.Client{Timeout: 60 * time.Second}

// Fetch downloads url and returns the open body. The caller closes it.
func Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "text/html")

	resp, err := defaultHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("status %d for %s", resp.StatusCode, url)
	}
	return resp.Body, nil
}

var priceHeaders = []string{"price", "value", "gold"}

// ParseHTML collects a TrainingRow from every table row whose table header
// names all of Name, Damage, Weight, Upgrade, Perk, Type and Category. A
// Price, Value or Gold column is optional. Rows that fail to parse are
// skipped and counted.
func ParseHTML(r io.Reader) (rows []model.TrainingRow, skipped int, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var cols map[string]int
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if cols == nil {
				cols = headerColumns(tr)
				return
			}
			if len(cols) == 0 {
				return
			}
			cells := tr.Find("td")
			if cells.Length() < len(model.RequiredFields)+1 {
				return
			}
			texts := make([]string, cells.Length())
			cells.Each(func(i int, td *goquery.Selection) {
				texts[i] = strings.TrimSpace(td.Text())
			})
			row, err := rowFromCells(texts, cols)
			if err != nil {
				skipped++
				return
			}
			rows = append(rows, row)
		})
	})
	return rows, skipped, nil
}

// headerColumns maps lower-cased header names to their index. It returns an
// empty map when tr is not a usable header, which disables the table.
func headerColumns(tr *goquery.Selection) map[string]int {
	cols := make(map[string]int)
	tr.Find("th, td").Each(func(i int, s *goquery.Selection) {
		cols[strings.ToLower(strings.TrimSpace(s.Text()))] = i
	})
	for _, f := range append([]string{model.FieldName}, model.RequiredFields...) {
		if _, ok := cols[strings.ToLower(f)]; !ok {
			return map[string]int{}
		}
	}
	return cols
}

func rowFromCells(cells []string, cols map[string]int) (model.TrainingRow, error) {
	if len(cols) == 0 {
		return model.TrainingRow{}, fmt.Errorf("table has no weapon header")
	}
	get := func(name string) string {
		i, ok := cols[strings.ToLower(name)]
		if !ok || i >= len(cells) {
			return ""
		}
		return cells[i]
	}

	row := model.TrainingRow{
		Name:     get(model.FieldName),
		Upgrade:  get(model.FieldUpgrade),
		Perk:     get(model.FieldPerk),
		Type:     get(model.FieldType),
		Category: get(model.FieldCategory),
	}
	if row.Name == "" {
		return row, fmt.Errorf("empty name")
	}

	var err error
	if row.Damage, err = strconv.Atoi(get(model.FieldDamage)); err != nil {
		return row, fmt.Errorf("damage %q: %w", get(model.FieldDamage), err)
	}
	if row.Weight, err = strconv.ParseFloat(get(model.FieldWeight), 64); err != nil {
		return row, fmt.Errorf("weight %q: %w", get(model.FieldWeight), err)
	}
	for _, h := range priceHeaders {
		if raw := get(h); raw != "" {
			if row.Price, err = parsePrice(raw); err != nil {
				return row, fmt.Errorf("price %q: %w", raw, err)
			}
			break
		}
	}
	return row, nil
}

func parsePrice(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
}
