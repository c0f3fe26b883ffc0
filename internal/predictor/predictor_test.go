package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"weaponforge/internal/model"
)

var axe = model.FieldRecord{Damage: 15, Weight: 10.5, Upgrade: "Steel Ingot", Perk: "Steel Smithing", Type: "Axe", Category: "Melee"}

func TestEncoder(t *testing.T) {
	enc := NewEncoder(
		[]string{"Damage", "Weight", "Type_Axe", "Type_Sword", "Category", "Upgrade", "Perk", "Unknown"},
		map[string][]string{"Category": {"Melee", "Ranged"}, "Upgrade": {"Ebony Ingot"}},
	)
	got := enc.Encode(axe)
	want := []float64{15, 10.5, 1, 0, 0, -1, 0, 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTrainingColumns(t *testing.T) {
	rows := []model.TrainingRow{
		{Type: "Sword", Category: "Melee"},
		{Type: "Axe", Category: "Melee"},
		{Type: "Bow", Category: "Ranged"},
	}
	fields := []string{model.FieldType, model.FieldCategory}

	got := TrainingColumns(rows, fields, true)
	want := []string{"Damage", "Weight", "Type_Bow", "Type_Sword", "Category_Ranged"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("drop first: got %v, want %v", got, want)
	}

	got = TrainingColumns(rows, fields, false)
	if len(got) != 7 || got[2] != "Type_Axe" {
		t.Errorf("keep first: unexpected %v", got)
	}

	ord := OrdinalCategories(rows, fields)
	if !reflect.DeepEqual(ord["Type"], []string{"Axe", "Bow", "Sword"}) {
		t.Errorf("unexpected ordinal categories %v", ord)
	}
}

func TestLinearModel(t *testing.T) {
	m := &LinearModel{
		Columns:      []string{"Damage", "Weight", "Type_Axe"},
		Intercept:    5,
		Coefficients: []float64{2, 1, 10},
	}
	features := m.Encoder().Encode(axe)
	price, err := m.Predict(context.Background(), features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 5+30+10.5+10 {
		t.Errorf("unexpected price %v", price)
	}

	if _, err := m.Predict(context.Background(), []float64{1}); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
}

func TestLoadLinearModel(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "model.json")
	os.WriteFile(good, []byte(`{"columns":["Damage","Weight"],"intercept":1.5,"coefficients":[3,0.5]}`), 0o644)

	m, err := LoadLinearModel(good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Intercept != 1.5 || len(m.Columns) != 2 {
		t.Errorf("unexpected model %+v", m)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"columns":["Damage","Weight"],"coefficients":[3]}`), 0o644)
	if _, err := LoadLinearModel(bad); err == nil {
		t.Error("expected error for mismatched coefficients")
	}
}

func TestHTTPPredictor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.Features) != 2 || req.Columns[0] != "Damage" {
			t.Errorf("unexpected request %+v", req)
		}
		io.WriteString(w, `{"price": 123.456}`)
	}))
	defer srv.Close()

	p := NewHTTPPredictor(srv.URL, []string{"Damage", "Weight"})
	price, err := p.Predict(context.Background(), []float64{15, 10.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 123.456 {
		t.Errorf("unexpected price %v", price)
	}
}

func TestHTTPPredictor_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": "bad features"}`)
	}))
	defer srv.Close()

	_, err := NewHTTPPredictor(srv.URL, nil).Predict(context.Background(), []float64{1})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRound2(t *testing.T) {
	for in, want := range map[float64]float64{123.456: 123.46, 10: 10, 0.125: 0.13, -0.125: -0.13} {
		if got := Round2(in); got != want {
			t.Errorf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestFit(t *testing.T) {
	var rows []model.TrainingRow
	for _, p := range [][2]float64{{1, 1}, {2, 5}, {3, 2}, {4, 7}, {9, 3}} {
		rows = append(rows, model.TrainingRow{Damage: int(p[0]), Weight: p[1], Price: 5 + 3*p[0] + 2*p[1]})
	}
	enc := NewEncoder([]string{"Damage", "Weight"}, nil)

	m, err := Fit(rows, enc, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Round2(m.Intercept) != 5 || Round2(m.Coefficients[0]) != 3 || Round2(m.Coefficients[1]) != 2 {
		t.Errorf("unexpected fit: %+v", m)
	}

	same := []model.TrainingRow{{Damage: 2, Weight: 2, Price: 1}, {Damage: 2, Weight: 2, Price: 3}}
	if _, err := Fit(same, enc, 0); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
	if _, err := Fit(same, enc, 1e-3); err != nil {
		t.Errorf("ridge should make the system solvable, got %v", err)
	}
}
