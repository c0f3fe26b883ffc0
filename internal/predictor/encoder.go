// Package predictor encodes weapon records into the training-time feature
// layout and estimates their price.
package predictor

import (
	"slices"
	"sort"
	"strings"

	"weaponforge/internal/model"
)

// CategoricalFields are the string columns of the training dataset.
var CategoricalFields = []string{model.FieldName, model.FieldUpgrade, model.FieldPerk, model.FieldType, model.FieldCategory}

// Encoder lays a record out over a fixed column order. Supported columns:
//
//	Damage, Weight        numeric value
//	<Field>_<Value>       one-hot, 1 when the record's Field equals Value
//	<Field>               ordinal index from Ordinal[Field], -1 if unseen, 0 without a list
//
// Any other column encodes as 0.
type Encoder struct {
	Columns []string
	Ordinal map[string][]string
}

func NewEncoder(columns []string, ordinal map[string][]string) *Encoder {
	return &Encoder{Columns: columns, Ordinal: ordinal}
}

func (e *Encoder) Encode(r model.FieldRecord) []float64 {
	out := make([]float64, len(e.Columns))
	for i, col := range e.Columns {
		out[i] = e.value(r, col)
	}
	return out
}

func (e *Encoder) value(r model.FieldRecord, col string) float64 {
	switch col {
	case model.FieldDamage:
		return float64(r.Damage)
	case model.FieldWeight:
		return r.Weight
	}

	if isCategorical(col) {
		cats, ok := e.Ordinal[col]
		if !ok {
			return 0
		}
		return float64(slices.Index(cats, r.Categorical(col)))
	}

	field, value, ok := strings.Cut(col, "_")
	if ok && isCategorical(field) && r.Categorical(field) == value {
		return 1
	}
	return 0
}

func isCategorical(field string) bool {
	return slices.Contains(CategoricalFields, field)
}

// TrainingColumns rebuilds the dummy-encoded column layout of a training set:
// Damage and Weight followed by one <Field>_<Value> column per distinct value
// of each field, values sorted. With dropFirst the first value of every field
// is left out.
func TrainingColumns(rows []model.TrainingRow, fields []string, dropFirst bool) []string {
	cols := []string{model.FieldDamage, model.FieldWeight}
	for _, f := range fields {
		seen := make(map[string]bool)
		var values []string
		for _, row := range rows {
			v := row.Record().Categorical(f)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
		sort.Strings(values)
		if dropFirst && len(values) > 0 {
			values = values[1:]
		}
		for _, v := range values {
			cols = append(cols, f+"_"+v)
		}
	}
	return cols
}

// OrdinalCategories collects the sorted distinct values of each field, the
// layout an ordinal encoder fitted on rows would use.
func OrdinalCategories(rows []model.TrainingRow, fields []string) map[string][]string {
	out := make(map[string][]string, len(fields))
	for _, f := range fields {
		seen := make(map[string]bool)
		for _, row := range rows {
			v := row.Record().Categorical(f)
			if !seen[v] {
				seen[v] = true
				out[f] = append(out[f], v)
			}
		}
		sort.Strings(out[f])
	}
	return out
}
