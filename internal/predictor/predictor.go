package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"
)

// Predictor maps an encoded feature vector to a price estimate.
type Predictor interface {
	Predict(ctx context.Context, features []float64) (float64, error)
}

var ErrDimension = errors.New("feature vector does not match model columns")

// LinearModel is a fitted linear regression exported as JSON.
type LinearModel struct {
	Columns      []string            `json:"columns"`
	Intercept    float64             `json:"intercept"`
	Coefficients []float64           `json:"coefficients"`
	Ordinal      map[string][]string `json:"ordinal,omitempty"`
}

func LoadLinearModel(path string) (*LinearModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if len(m.Columns) == 0 || len(m.Columns) != len(m.Coefficients) {
		return nil, fmt.Errorf("model %s: %d columns, %d coefficients", path, len(m.Columns), len(m.Coefficients))
	}
	return &m, nil
}

// Encoder returns an encoder aligned to the model's column order.
func (m *LinearModel) Encoder() *Encoder {
	return NewEncoder(m.Columns, m.Ordinal)
}

func (m *LinearModel) Predict(_ context.Context, features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(features), len(m.Coefficients))
	}
	y := m.Intercept
	for i, x := range features {
		y += m.Coefficients[i] * x
	}
	return y, nil
}

// HTTPPredictor delegates to a remote inference endpoint.
type HTTPPredictor struct {
	URL     string
	Columns []string
	Client  *http.Client
}

type predictRequest struct {
	Columns  []string  `json:"columns"`
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Price *float64 `json:"price"`
	Error string   `json:"error,omitempty"`
}

func NewHTTPPredictor(url string, columns []string) *HTTPPredictor {
	return &HTTPPredictor{
		URL:     url,
		Columns: columns,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *HTTPPredictor) Predict(ctx context.Context, features []float64) (float64, error) {
	body, err := json.Marshal(predictRequest{Columns: p.Columns, Features: features})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("predictor returned status %d: %s", resp.StatusCode, pr.Error)
	}
	if pr.Price == nil {
		return 0, errors.New("predictor response has no price")
	}
	return *pr.Price, nil
}

// Round2 rounds to two decimals, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
