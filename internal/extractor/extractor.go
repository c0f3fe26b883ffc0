// Package extractor turns free-form weapon descriptions produced by a language
// model into complete model.FieldRecord values.
package extractor

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"weaponforge/internal/model"
)

// Mode selects how raw text is scanned.
type Mode string

const (
	// Permissive flattens the text to a single line, cuts each value at the
	// next comma or colon and averages Damage ranges.
	Permissive Mode = "permissive"
	// Strict scans line by line and rejects Damage ranges.
	Strict Mode = "strict"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Permissive:
		return Permissive, nil
	case Strict:
		return Strict, nil
	}
	return "", fmt.Errorf("unknown extract mode %q", s)
}

var strictPair = regexp.MustCompile(`([A-Za-z]+):\s*([^,]+)`)

// Extractor holds only immutable configuration and may be shared between
// goroutines.
type Extractor struct {
	mode     Mode
	keys     map[string]bool // recognized field names, exact case
	keyMatch *regexp.Regexp
	logger   *slog.Logger
}

type Option func(*Extractor)

// WithName also recognizes a "Name:" field.
func WithName() Option {
	return func(e *Extractor) {
		e.keys[model.FieldName] = true
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

func New(mode Mode, opts ...Option) *Extractor {
	if mode == "" {
		mode = Permissive
	}
	e := &Extractor{
		mode: mode,
		keys: make(map[string]bool, len(model.RequiredFields)+1),
	}
	for _, f := range model.RequiredFields {
		e.keys[f] = true
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	names := make([]string, 0, len(e.keys))
	for name := range e.keys {
		names = append(names, regexp.QuoteMeta(name))
	}
	sort.Strings(names)
	e.keyMatch = regexp.MustCompile(`\b(` + strings.Join(names, "|") + `)\s*:`)
	return e
}

func (e *Extractor) Mode() Mode {
	return e.mode
}

// Extract parses raw into a complete record. Any failure is an
// *ExtractionError and the returned record is the zero value.
func Extract(raw string) (model.FieldRecord, error) {
	return New(Permissive).Extract(raw)
}

func (e *Extractor) Extract(raw string) (model.FieldRecord, error) {
	var pairs []pair
	if e.mode == Strict {
		pairs = e.scanStrict(raw)
	} else {
		pairs = e.scanPermissive(raw)
	}
	return e.build(pairs)
}

type pair struct {
	key   string
	value string
}

func (e *Extractor) scanPermissive(raw string) []pair {
	text := collapse(stripMarkdown(raw))
	locs := e.keyMatch.FindAllStringSubmatchIndex(text, -1)

	pairs := make([]pair, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		value := text[loc[1]:end]
		if cut := strings.IndexAny(value, ",:"); cut >= 0 {
			value = value[:cut]
		}
		pairs = append(pairs, pair{
			key:   text[loc[2]:loc[3]],
			value: cleanValue(value),
		})
	}
	return pairs
}

func (e *Extractor) scanStrict(raw string) []pair {
	var pairs []pair
	for _, line := range splitLines(stripMarkdown(raw)) {
		for _, m := range strictPair.FindAllStringSubmatch(line, -1) {
			if !e.keys[m[1]] {
				continue
			}
			pairs = append(pairs, pair{key: m[1], value: cleanValue(m[2])})
		}
	}
	return pairs
}

func (e *Extractor) build(pairs []pair) (model.FieldRecord, error) {
	var rec model.FieldRecord
	parsed := make(map[string]string, len(pairs))

	for _, p := range pairs {
		parsed[p.key] = p.value
		switch p.key {
		case model.FieldDamage:
			d, err := e.parseDamage(p.value)
			if err != nil {
				e.logger.Warn("extract.invalid_damage", "mode", e.mode, "value", p.value)
				return model.FieldRecord{}, &ExtractionError{Kind: ErrInvalidDamage, Value: p.value, Parsed: parsed}
			}
			rec.Damage = d
		case model.FieldWeight:
			w, err := strconv.ParseFloat(p.value, 64)
			if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
				e.logger.Warn("extract.invalid_weight", "mode", e.mode, "value", p.value)
				return model.FieldRecord{}, &ExtractionError{Kind: ErrInvalidWeight, Value: p.value, Parsed: parsed}
			}
			rec.Weight = w
		case model.FieldUpgrade:
			rec.Upgrade = p.value
		case model.FieldPerk:
			rec.Perk = p.value
		case model.FieldType:
			rec.Type = p.value
		case model.FieldCategory:
			rec.Category = p.value
		case model.FieldName:
			rec.Name = p.value
		}
	}

	var missing []string
	for _, f := range model.RequiredFields {
		if _, ok := parsed[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		e.logger.Warn("extract.missing_fields", "mode", e.mode, "missing", missing, "parsed", parsed)
		return model.FieldRecord{}, &ExtractionError{Kind: ErrMissingFields, Missing: missing, Parsed: parsed}
	}

	e.logger.Debug("extract.parsed", "mode", e.mode, "record", rec)
	return rec, nil
}

// parseDamage accepts a single integer, or in permissive mode a "low-high"
// range which is reduced to its truncated integer average.
func (e *Extractor) parseDamage(v string) (int, error) {
	if e.mode == Permissive && strings.Contains(v, "-") {
		bounds := strings.Split(v, "-")
		if len(bounds) != 2 {
			return 0, fmt.Errorf("damage range %q", v)
		}
		low, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return 0, err
		}
		high, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return 0, err
		}
		// both bounds are non-negative; halving first keeps the sum from overflowing
		return low/2 + high/2 + (low%2+high%2)/2, nil
	}
	return strconv.Atoi(v)
}
