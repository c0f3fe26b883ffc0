package forge

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"weaponforge/internal/model"
)

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandler_Extract(t *testing.T) {
	svc := newService(&scriptedGenerator{}, &memStore{}, nil)
	h := Handler(svc, svc.Metrics)

	rec := serve(t, h, "POST", "/extract", `{"text":"**Damage:** 18-25, Weight: 9, Upgrade: Ebony Ingot, Perk: Soul Drain, Type: Sword, Category: Melee"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var got model.FieldRecord
	json.NewDecoder(rec.Body).Decode(&got)
	if got.Damage != 21 || got.Type != "Sword" {
		t.Errorf("unexpected record %+v", got)
	}

	rec = serve(t, h, "POST", "/extract", `{"text":"Damage: 18-25, Weight: 9, Upgrade: Ebony Ingot, Perk: Soul Drain, Type: Sword, Category: Melee","mode":"strict"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var er ErrorResponse
	json.NewDecoder(rec.Body).Decode(&er)
	if er.Kind != "invalid_damage" || er.Value != "18-25" {
		t.Errorf("unexpected error response %+v", er)
	}

	rec = serve(t, h, "POST", "/extract", `{"text":"Type: Bow","mode":"strict"}`)
	json.NewDecoder(rec.Body).Decode(&er)
	if er.Kind != "missing_fields" || len(er.Missing) != 5 {
		t.Errorf("unexpected missing response %+v", er)
	}

	rec = serve(t, h, "POST", "/extract", `{"text":"x","mode":"fuzzy"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown mode, got %d", rec.Code)
	}

	rec = serve(t, h, "POST", "/extract", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestHandler_Forge(t *testing.T) {
	store := &memStore{}
	svc := newService(&scriptedGenerator{name: "Blade of Hilda", stats: []string{axeLine}}, store, nil)
	h := Handler(svc, svc.Metrics)

	rec := serve(t, h, "POST", "/forge", `{"base_name":"Hilda"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var doc model.WeaponDocument
	json.NewDecoder(rec.Body).Decode(&doc)
	if doc.Name != "Blade of Hilda" || doc.PredictedPrice != 41.5 {
		t.Errorf("unexpected document %+v", doc)
	}

	rec = serve(t, h, "GET", "/weapons?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var docs []model.WeaponDocument
	json.NewDecoder(rec.Body).Decode(&docs)
	if len(docs) != 1 {
		t.Errorf("expected 1 listed weapon, got %d", len(docs))
	}

	rec = serve(t, h, "POST", "/forge", `{"base_name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty base, got %d", rec.Code)
	}

	rec = serve(t, h, "GET", "/metrics", "")
	if !strings.Contains(rec.Body.String(), "weaponforge_predicted_price") {
		t.Error("metrics endpoint missing price histogram")
	}
}

func TestHandler_ForgeFailure(t *testing.T) {
	svc := newService(&scriptedGenerator{name: "Blade of Hilda", stats: []string{"no stats here"}}, &memStore{}, nil)
	rec := serve(t, Handler(svc, nil), "POST", "/forge", `{"base_name":"Hilda"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var er ErrorResponse
	json.NewDecoder(rec.Body).Decode(&er)
	if er.Kind != "missing_fields" || len(er.Missing) != 6 {
		t.Errorf("unexpected error response %+v", er)
	}
}

func TestHandler_WeaponsWithoutStore(t *testing.T) {
	svc := newService(&scriptedGenerator{}, nil, nil)
	svc.Store = nil
	rec := serve(t, Handler(svc, nil), "GET", "/weapons", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestWriteJSON_Unencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, model.FieldRecord{Weight: math.NaN()})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var er ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&er); err != nil || er.Error == "" {
		t.Errorf("expected an error body, got %q (%v)", rec.Body.String(), err)
	}
}

func TestHandler_ExtractNonFiniteWeight(t *testing.T) {
	svc := newService(&scriptedGenerator{}, &memStore{}, nil)
	rec := serve(t, Handler(svc, nil), "POST", "/extract",
		`{"text":"Damage: 15, Weight: NaN, Upgrade: Steel Ingot, Perk: Armsman, Type: Axe, Category: Melee"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body)
	}
	var er ErrorResponse
	json.NewDecoder(rec.Body).Decode(&er)
	if er.Kind != "invalid_weight" || er.Value != "NaN" {
		t.Errorf("unexpected error response %+v", er)
	}
}
