package predictor

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"weaponforge/internal/model"
)

var ErrSingular = errors.New("training matrix is singular")

// Fit solves ordinary least squares over rows laid out by enc, through a QR
// factorization of the design matrix. ridge > 0 adds an L2 penalty on every
// coefficient except the intercept, which keeps collinear one-hot columns
// solvable.
func Fit(rows []model.TrainingRow, enc *Encoder, ridge float64) (*LinearModel, error) {
	if len(rows) == 0 {
		return nil, errors.New("no training rows")
	}
	n := len(enc.Columns) + 1 // leading intercept column

	// the penalty is applied as sqrt(ridge)*I rows appended under X with zero targets
	penalty := 0
	if ridge > 0 {
		penalty = n - 1
	}
	m := len(rows) + penalty
	if m < n {
		return nil, fmt.Errorf("%w: %d rows for %d unknowns", ErrSingular, m, n)
	}

	x := mat.NewDense(m, n, nil)
	y := mat.NewDense(m, 1, nil)
	for i, row := range rows {
		x.Set(i, 0, 1)
		for j, v := range enc.Encode(row.Record()) {
			x.Set(i, j+1, v)
		}
		y.Set(i, 0, row.Price)
	}
	for k := 0; k < penalty; k++ {
		x.Set(len(rows)+k, k+1, math.Sqrt(ridge))
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
		return nil, err
	}

	coef := make([]float64, n-1)
	for j := range coef {
		coef[j] = beta.At(j+1, 0)
	}
	return &LinearModel{
		Columns:      append([]string(nil), enc.Columns...),
		Intercept:    beta.At(0, 0),
		Coefficients: coef,
		Ordinal:      enc.Ordinal,
	}, nil
}
