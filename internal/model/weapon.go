package model

import "time"

// Required field names, in the order completeness is checked and reported.
const (
	FieldDamage   = "Damage"
	FieldWeight   = "Weight"
	FieldUpgrade  = "Upgrade"
	FieldPerk     = "Perk"
	FieldType     = "Type"
	FieldCategory = "Category"
	FieldName     = "Name"
)

var RequiredFields = []string{FieldDamage, FieldWeight, FieldUpgrade, FieldPerk, FieldType, FieldCategory}

// FieldRecord is the structured weapon parsed out of generated text.
// Name is optional; an empty Name means absent.
type FieldRecord struct {
	Damage   int     `json:"Damage"`
	Weight   float64 `json:"Weight"`
	Upgrade  string  `json:"Upgrade"`
	Perk     string  `json:"Perk"`
	Type     string  `json:"Type"`
	Category string  `json:"Category"`
	Name     string  `json:"Name,omitempty"`
}

// Categorical returns the string value of a categorical field, or "" for
// numeric and unknown field names.
func (r FieldRecord) Categorical(field string) string {
	switch field {
	case FieldUpgrade:
		return r.Upgrade
	case FieldPerk:
		return r.Perk
	case FieldType:
		return r.Type
	case FieldCategory:
		return r.Category
	case FieldName:
		return r.Name
	}
	return ""
}

// WeaponDocument is what gets persisted: the record plus its predicted price.
type WeaponDocument struct {
	ID string `json:"id"`
	FieldRecord
	PredictedPrice float64   `json:"predicted_price"`
	Model          string    `json:"model,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// GenerationLog is one audited round trip to the generation service.
type GenerationLog struct {
	ID         string
	BaseName   string
	WeaponName string
	Prompt     string
	RawText    string
	Attempt    int
	Outcome    string
	Error      string
	CreatedAt  time.Time
}

// TrainingRow is one row of the weapons training dataset.
type TrainingRow struct {
	Name     string
	Damage   int
	Weight   float64
	Upgrade  string
	Perk     string
	Type     string
	Category string
	Price    float64
}

// Record drops the price and returns the row as a FieldRecord.
func (t TrainingRow) Record() FieldRecord {
	return FieldRecord{
		Damage:   t.Damage,
		Weight:   t.Weight,
		Upgrade:  t.Upgrade,
		Perk:     t.Perk,
		Type:     t.Type,
		Category: t.Category,
		Name:     t.Name,
	}
}
