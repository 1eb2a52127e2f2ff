package lattice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden tests pin the engine to fixed expected outputs so that numerical
// behavior stays consistent across code changes. The reference scenario is
// the documented demo contract: an at-the-money one-year put.

func goldenPut() Contract {
	return Contract{
		Spot:       100,
		Strike:     100,
		Maturity:   1.0,
		Rate:       0.05,
		Volatility: 0.25,
		Kind:       Put,
		Style:      American,
	}
}

// TestGoldenAmericanPut verifies the reference American put price at 300
// steps against the documented value of 7.971.
func TestGoldenAmericanPut(t *testing.T) {
	engine := newTestEngine()

	res, err := engine.Price(context.Background(), goldenPut(), 300)
	require.NoError(t, err)

	assert.InDelta(t, 7.971, res.Value, 0.01,
		"American put price drifted from the documented reference value")
}

// TestGoldenEuropeanPut verifies the same contract without early exercise
// against the documented European value of 7.459, on the lattice and in
// closed form.
func TestGoldenEuropeanPut(t *testing.T) {
	engine := newTestEngine()

	contract := goldenPut()
	contract.Style = European

	res, err := engine.Price(context.Background(), contract, 300)
	require.NoError(t, err)
	assert.InDelta(t, 7.459, res.Value, 0.01,
		"lattice European put price drifted from the documented reference value")

	closedForm, err := BlackScholes(contract)
	require.NoError(t, err)
	assert.InDelta(t, 7.459, closedForm, 0.01,
		"Black-Scholes put price drifted from the documented reference value")
}

// TestGoldenEarlyExercisePremium checks that the American put carries a
// strictly positive premium over its European counterpart.
func TestGoldenEarlyExercisePremium(t *testing.T) {
	engine := newTestEngine()

	american, err := engine.Price(context.Background(), goldenPut(), 300)
	require.NoError(t, err)

	european := goldenPut()
	european.Style = European
	baseline, err := engine.Price(context.Background(), european, 300)
	require.NoError(t, err)

	premium := american.Value - baseline.Value
	assert.Greater(t, premium, 0.0, "at-the-money put must carry an early exercise premium")
	assert.InDelta(t, 0.512, premium, 0.02)
}

// TestGoldenCalibrationConstants pins the derived lattice constants for the
// reference contract at 300 steps.
func TestGoldenCalibrationConstants(t *testing.T) {
	cal, err := Calibrate(goldenPut(), 300)
	require.NoError(t, err)

	assert.InDelta(t, 1.0/300.0, cal.Dt, 1e-12)
	assert.InDelta(t, 1.014537, cal.Up, 1e-5)
	assert.InDelta(t, 0.985671, cal.Down, 1e-5)
	assert.InDelta(t, 0.5022, cal.UpProb, 0.001)
	assert.InDelta(t, 0.999833, cal.Discount, 1e-5)
	assert.True(t, cal.IsValid())
}

// TestGoldenBoundaryShape verifies structural properties of the reference
// put's exercise boundary: critical prices sit below the strike and the
// boundary ends at maturity.
func TestGoldenBoundaryShape(t *testing.T) {
	engine := newTestEngine()

	res, err := engine.Price(context.Background(), goldenPut(), 300)
	require.NoError(t, err)

	boundary, err := ExtractBoundary(res)
	require.NoError(t, err)
	require.Len(t, boundary.Points, 301)

	exercised := boundary.ExercisePoints()
	require.NotEmpty(t, exercised, "an American put at these parameters must have an early exercise region")

	for _, p := range exercised {
		assert.Less(t, p.Price, goldenPut().Strike,
			"put critical price at step %d must sit below the strike", p.Step)
		assert.GreaterOrEqual(t, p.Time, 0.0)
		assert.LessOrEqual(t, p.Time, goldenPut().Maturity+1e-9)
	}

	last := boundary.Points[len(boundary.Points)-1]
	assert.Equal(t, 300, last.Step)
	assert.InDelta(t, 1.0, last.Time, 1e-9)
	assert.True(t, last.Exercise, "terminal step holds in-the-money nodes")
}
