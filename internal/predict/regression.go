package predict

import (
	"errors"
	"math"
)

// ridgeModel is a linear model fitted by ridge regression. Serialized to
// the model store so a trained estimator survives restarts.
type ridgeModel struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

const ridgeLambda = 1.0

var errSingularSystem = errors.New("regression: singular normal equations")

// fitRidge solves the ridge normal equations (XᵀX + λI)w = Xᵀy for the
// weight vector. The intercept column is not penalized.
func fitRidge(features [][]float64, targets []float64, lambda float64) (*ridgeModel, error) {
	n := len(features)
	if n == 0 || n != len(targets) {
		return nil, errors.New("regression: empty or mismatched training set")
	}
	p := len(features[0])

	// Augment with an intercept column at index p.
	dim := p + 1
	a := make([][]float64, dim)
	b := make([]float64, dim)
	for i := range a {
		a[i] = make([]float64, dim)
	}

	row := make([]float64, dim)
	for i, x := range features {
		if len(x) != p {
			return nil, errors.New("regression: ragged feature matrix")
		}
		copy(row, x)
		row[p] = 1.0
		for j := 0; j < dim; j++ {
			for k := 0; k < dim; k++ {
				a[j][k] += row[j] * row[k]
			}
			b[j] += row[j] * targets[i]
		}
	}
	for j := 0; j < p; j++ {
		a[j][j] += lambda
	}

	w, err := solve(a, b)
	if err != nil {
		return nil, err
	}
	return &ridgeModel{Weights: w[:p], Intercept: w[p]}, nil
}

// predict evaluates the model on a single feature vector. Vectors of the
// wrong length yield NaN so callers can detect a stale persisted model.
func (m *ridgeModel) predict(x []float64) float64 {
	if len(x) != len(m.Weights) {
		return math.NaN()
	}
	sum := m.Intercept
	for i, w := range m.Weights {
		sum += w * x[i]
	}
	return sum
}

// solve performs Gaussian elimination with partial pivoting on a copy of
// the system.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	m := make([][]float64, n)
	for i := range a {
		m[i] = append(append([]float64(nil), a[i]...), b[i])
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, errSingularSystem
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := m[i][n]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * x[j]
		}
		x[i] = sum / m[i][i]
	}
	return x, nil
}
