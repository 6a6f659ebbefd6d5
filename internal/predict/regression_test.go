package predict

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitRidgeRecoversLinearRelation(t *testing.T) {
	// y = 2x1 - x2 + 3 with a little regularization shrinkage.
	features := [][]float64{
		{1, 0}, {2, 1}, {3, 1}, {4, 2}, {5, 2},
		{6, 3}, {7, 4}, {8, 4}, {9, 5}, {10, 5},
	}
	targets := make([]float64, len(features))
	for i, x := range features {
		targets[i] = 2*x[0] - x[1] + 3
	}

	model, err := fitRidge(features, targets, 0.01)
	require.NoError(t, err)
	require.Len(t, model.Weights, 2)

	assert.InDelta(t, 2.0, model.Weights[0], 0.1)
	assert.InDelta(t, -1.0, model.Weights[1], 0.2)
	assert.InDelta(t, 3.0, model.Intercept, 0.5)

	assert.InDelta(t, 2*6.5-3+3, model.predict([]float64{6.5, 3}), 0.3)
}

func TestFitRidgeHandlesCollinearFeatures(t *testing.T) {
	// Perfectly collinear columns would make plain least squares singular;
	// the ridge penalty keeps the system solvable.
	features := [][]float64{
		{1, 2}, {2, 4}, {3, 6}, {4, 8}, {5, 10},
		{6, 12}, {7, 14}, {8, 16}, {9, 18}, {10, 20},
	}
	targets := []float64{5, 10, 15, 20, 25, 30, 35, 40, 45, 50}

	model, err := fitRidge(features, targets, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 32.5, model.predict([]float64{6.5, 13}), 1.5)
}

func TestFitRidgeRejectsBadInput(t *testing.T) {
	_, err := fitRidge(nil, nil, 1.0)
	assert.Error(t, err)

	_, err = fitRidge([][]float64{{1, 2}}, []float64{1, 2}, 1.0)
	assert.Error(t, err)

	_, err = fitRidge([][]float64{{1, 2}, {1}}, []float64{1, 2}, 1.0)
	assert.Error(t, err)
}

func TestPredictDimensionMismatch(t *testing.T) {
	m := &ridgeModel{Weights: []float64{1, 2}, Intercept: 0}
	assert.True(t, math.IsNaN(m.predict([]float64{1})))
}
