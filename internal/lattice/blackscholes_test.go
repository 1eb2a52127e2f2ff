package lattice

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlackScholes_ReferenceValues(t *testing.T) {
	// At-the-money one-year contract, r = 5%, sigma = 25%.
	tests := []struct {
		name     string
		kind     OptionKind
		expected float64
	}{
		{"call", Call, 12.336},
		{"put", Put, 7.459},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validTestContract()
			c.Kind = tt.kind

			value, err := BlackScholes(c)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, value, 0.01)
		})
	}
}

// TestBlackScholes_PutCallParity checks C - P = S0 - K*exp(-rT) across a
// range of spots.
func TestBlackScholes_PutCallParity(t *testing.T) {
	for _, spot := range []float64{60, 80, 100, 120, 150} {
		c := validTestContract()
		c.Spot = spot

		c.Kind = Call
		call, err := BlackScholes(c)
		require.NoError(t, err)

		c.Kind = Put
		put, err := BlackScholes(c)
		require.NoError(t, err)

		forward := spot - c.Strike*math.Exp(-c.Rate*c.Maturity)
		assert.InDelta(t, forward, call-put, 1e-9,
			"put-call parity violated at spot %f", spot)
	}
}

func TestBlackScholes_MonotonicInVolatility(t *testing.T) {
	prev := -1.0
	for _, vol := range []float64{0.05, 0.1, 0.2, 0.4, 0.8} {
		c := validTestContract()
		c.Volatility = vol

		value, err := BlackScholes(c)
		require.NoError(t, err)
		assert.Greater(t, value, prev, "put value must increase with volatility")
		prev = value
	}
}

func TestBlackScholes_InvalidContract(t *testing.T) {
	c := validTestContract()
	c.Volatility = -0.1

	_, err := BlackScholes(c)
	require.Error(t, err)

	var valErr ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "volatility", valErr.Field)
}

func TestNormCDF(t *testing.T) {
	assert.InDelta(t, 0.5, normCDF(0), 1e-12)
	assert.InDelta(t, 0.8413, normCDF(1), 1e-4)
	assert.InDelta(t, 0.1587, normCDF(-1), 1e-4)
	assert.InDelta(t, 1.0, normCDF(8), 1e-9)
	assert.InDelta(t, 0.0, normCDF(-8), 1e-9)
}
