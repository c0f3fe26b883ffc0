package forge

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"weaponforge/internal/extractor"
	"weaponforge/internal/observability"
)

type ForgeRequest struct {
	BaseName string `json:"base_name"`
}

type ExtractRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Kind    string            `json:"kind,omitempty"`
	Value   string            `json:"value,omitempty"`
	Missing []string          `json:"missing,omitempty"`
	Parsed  map[string]string `json:"parsed,omitempty"`
}

// Handler exposes the service over HTTP:
//
//	POST /forge    {"base_name": "..."}
//	POST /extract  {"text": "...", "mode": "strict"}
//	GET  /weapons  ?limit=N
//	GET  /metrics
func Handler(svc *Service, metrics *observability.Metrics) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /forge", func(w http.ResponseWriter, r *http.Request) {
		var req ForgeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json: " + err.Error()})
			return
		}
		doc, err := svc.Forge(r.Context(), req.BaseName)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, doc)
		case errors.Is(err, ErrEmptyBaseName):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrGenerationFailed):
			writeJSON(w, http.StatusUnprocessableEntity, extractionError(err))
		default:
			svc.logger().Error("http.forge", "error", err)
			writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		}
	})

	mux.HandleFunc("POST /extract", func(w http.ResponseWriter, r *http.Request) {
		var req ExtractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json: " + err.Error()})
			return
		}
		ex := svc.Extractor
		if req.Mode != "" {
			mode, err := extractor.ParseMode(req.Mode)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
				return
			}
			ex = extractor.New(mode, extractor.WithName(), extractor.WithLogger(svc.logger()))
		}
		rec, err := ex.Extract(req.Text)
		metrics.ObserveExtraction(string(ex.Mode()), extractor.Reason(err))
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, extractionError(err))
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	mux.HandleFunc("GET /weapons", func(w http.ResponseWriter, r *http.Request) {
		if svc.Store == nil {
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "no weapon store configured"})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		docs, err := svc.Store.List(r.Context(), limit)
		if err != nil {
			svc.logger().Error("http.weapons", "error", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, docs)
	})

	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	return mux
}

func extractionError(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error(), Kind: extractor.Reason(err)}
	var xerr *extractor.ExtractionError
	if errors.As(err, &xerr) {
		resp.Value = xerr.Value
		resp.Missing = xerr.Missing
		resp.Parsed = xerr.Parsed
	}
	return resp
}

// writeJSON encodes v before touching the response, so an unencodable value
// becomes a 500 instead of a success status with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Default().Error("http.encode", "error", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
