package lattice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEngine_DegenerateSingleStep(t *testing.T) {
	tests := []struct {
		name string
		kind OptionKind
	}{
		{"put", Put},
		{"call", Call},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validTestContract()
			c.Kind = tt.kind

			cal, err := Calibrate(c, 1)
			require.NoError(t, err)

			engine := newTestEngine()
			result, err := engine.Price(context.Background(), c, 1)
			require.NoError(t, err)

			// With a single step the recurrence collapses to one expectation
			payoff := NewPayoff(tt.kind, c.Strike)
			continuation := cal.Discount * (cal.UpProb*payoff.At(c.Spot*cal.Up) + (1-cal.UpProb)*payoff.At(c.Spot*cal.Down))
			expected := math.Max(payoff.At(c.Spot), continuation)

			assert.InDelta(t, expected, result.Value, 1e-12)

			// The grid holds exactly the nodes (0,0), (1,0) and (1,1)
			require.Equal(t, 1, result.Values.Steps())
			terminalLow, err := result.Values.At(1, 0)
			require.NoError(t, err)
			assert.InDelta(t, payoff.At(c.Spot*cal.Down), terminalLow, 1e-12)
			terminalHigh, err := result.Values.At(1, 1)
			require.NoError(t, err)
			assert.InDelta(t, payoff.At(c.Spot*cal.Up), terminalHigh, 1e-12)
		})
	}
}

func TestEngine_AmericanAtLeastEuropean(t *testing.T) {
	tests := []struct {
		name       string
		kind       OptionKind
		spot       float64
		rate       float64
		volatility float64
	}{
		{"atm_put", Put, 100, 0.05, 0.25},
		{"itm_put", Put, 80, 0.05, 0.25},
		{"otm_put", Put, 120, 0.05, 0.25},
		{"atm_call", Call, 100, 0.05, 0.25},
		{"put_negative_rate", Put, 100, -0.005, 0.30},
		{"high_vol_put", Put, 100, 0.02, 0.60},
	}

	engine := newTestEngine()
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validTestContract()
			c.Kind = tt.kind
			c.Spot = tt.spot
			c.Rate = tt.rate
			c.Volatility = tt.volatility

			c.Style = American
			american, err := engine.Price(ctx, c, 200)
			require.NoError(t, err)

			c.Style = European
			european, err := engine.Price(ctx, c, 200)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, american.Value, european.Value-1e-12,
				"early exercise can only add value")
		})
	}
}

func TestEngine_AmericanCallMatchesEuropeanCall(t *testing.T) {
	// Without dividends and with a nonnegative rate, early exercise of a
	// call is never optimal, so both styles price identically.
	tests := []struct {
		name string
		spot float64
		rate float64
	}{
		{"atm_zero_rate", 100, 0.0},
		{"atm_positive_rate", 100, 0.05},
		{"itm_positive_rate", 130, 0.08},
		{"otm_positive_rate", 80, 0.03},
	}

	engine := newTestEngine()
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validTestContract()
			c.Kind = Call
			c.Spot = tt.spot
			c.Rate = tt.rate

			c.Style = American
			american, err := engine.Price(ctx, c, 250)
			require.NoError(t, err)

			c.Style = European
			european, err := engine.Price(ctx, c, 250)
			require.NoError(t, err)

			assert.InDelta(t, european.Value, american.Value, 1e-9,
				"american call should collapse to the european value")
		})
	}
}

func TestEngine_VolatilityMonotonicity(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	for _, kind := range []OptionKind{Put, Call} {
		prev := -math.MaxFloat64
		for _, volatility := range []float64{0.10, 0.15, 0.20, 0.30, 0.40, 0.60} {
			c := validTestContract()
			c.Kind = kind
			c.Volatility = volatility

			result, err := engine.Price(ctx, c, 256)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, result.Value, prev-1e-9,
				"%s value should not decrease when volatility rises to %.2f", kind, volatility)
			prev = result.Value
		}
	}
}

func TestEngine_RateAsymmetry(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	price := func(kind OptionKind, rate float64) float64 {
		c := validTestContract()
		c.Kind = kind
		c.Rate = rate
		result, err := engine.Price(ctx, c, 200)
		require.NoError(t, err)
		return result.Value
	}

	lowRateCall := price(Call, 0.02)
	highRateCall := price(Call, 0.08)
	assert.Greater(t, highRateCall, lowRateCall,
		"a higher rate should raise the call value")

	lowRatePut := price(Put, 0.02)
	highRatePut := price(Put, 0.08)
	assert.LessOrEqual(t, highRatePut, lowRatePut+1e-9,
		"a higher rate should not raise the put value")
}

func TestEngine_DeepInTheMoneyPutExercisedAtRoot(t *testing.T) {
	c := validTestContract()
	c.Spot = 40
	c.Strike = 100

	engine := newTestEngine()
	result, err := engine.Price(context.Background(), c, 200)
	require.NoError(t, err)

	// Immediate exercise dominates: the value is the intrinsic 60 and the
	// root policy says exercise.
	assert.InDelta(t, 60.0, result.Value, 1e-9)

	exercised, err := result.Policy.At(0, 0)
	require.NoError(t, err)
	assert.True(t, exercised)
}

func TestEngine_TerminalRowMatchesPayoff(t *testing.T) {
	c := validTestContract()
	steps := 30

	engine := newTestEngine()
	result, err := engine.Price(context.Background(), c, steps)
	require.NoError(t, err)

	geom := NewGeometry(c.Spot, result.Calibration)
	payoff := NewPayoff(c.Kind, c.Strike)

	for node := 0; node <= steps; node++ {
		price, err := geom.Price(steps, node)
		require.NoError(t, err)

		v, err := result.Values.At(steps, node)
		require.NoError(t, err)
		assert.InDelta(t, payoff.At(price), v, 1e-12)

		exercised, err := result.Policy.At(steps, node)
		require.NoError(t, err)
		assert.Equal(t, payoff.At(price) > 0, exercised,
			"terminal node %d should be exercised exactly when its payoff is positive", node)
	}
}

func TestEngine_EuropeanNeverExercisesEarly(t *testing.T) {
	c := validTestContract()
	c.Style = European
	steps := 50

	engine := newTestEngine()
	result, err := engine.Price(context.Background(), c, steps)
	require.NoError(t, err)

	for step := 0; step < steps; step++ {
		row, err := result.Policy.Row(step)
		require.NoError(t, err)
		for node, exercised := range row {
			assert.False(t, exercised,
				"european contract must not exercise at step %d node %d", step, node)
		}
	}
}

func TestEngine_InvalidContract(t *testing.T) {
	engine := newTestEngine()

	c := validTestContract()
	c.Volatility = -1

	_, err := engine.Price(context.Background(), c, 100)
	require.Error(t, err)

	var verr ValidationError
	assert.True(t, errors.As(err, &verr), "validation failures must surface as ValidationError")
}

func TestEngine_NumericalInstability(t *testing.T) {
	// Parameters valid in isolation but whose lattice overflows float64 at
	// the extreme nodes must fail loudly instead of returning garbage.
	c := Contract{
		Spot:       1e308,
		Strike:     1e308,
		Maturity:   1.0,
		Rate:       0.0,
		Volatility: 2.0,
		Kind:       Call,
		Style:      American,
	}

	engine := newTestEngine()
	_, err := engine.Price(context.Background(), c, 100)
	require.Error(t, err)

	var ierr InstabilityError
	require.True(t, errors.As(err, &ierr), "overflow should surface as InstabilityError, got %T", err)
}

func TestEngine_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := newTestEngine()
	_, err := engine.Price(ctx, validTestContract(), 500)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEngine_Timeout(t *testing.T) {
	engine := newTestEngine()
	engine.SetTimeout(time.Nanosecond)

	_, err := engine.Price(context.Background(), validTestContract(), 2000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestEngine_ConcurrentInvocations(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	spots := []float64{80, 90, 100, 110, 120}

	// Serial reference values
	want := make([]float64, len(spots))
	for i, spot := range spots {
		c := validTestContract()
		c.Spot = spot
		result, err := engine.Price(ctx, c, 150)
		require.NoError(t, err)
		want[i] = result.Value
	}

	// The same engine serving all invocations concurrently must reproduce
	// the serial values exactly.
	var wg sync.WaitGroup
	got := make([]float64, len(spots))
	errs := make([]error, len(spots))

	for i, spot := range spots {
		wg.Add(1)
		go func(i int, spot float64) {
			defer wg.Done()
			c := validTestContract()
			c.Spot = spot
			result, err := engine.Price(ctx, c, 150)
			if err != nil {
				errs[i] = err
				return
			}
			got[i] = result.Value
		}(i, spot)
	}
	wg.Wait()

	for i := range spots {
		require.NoError(t, errs[i])
		assert.Equal(t, want[i], got[i], "concurrent pricing diverged for spot %.0f", spots[i])
	}
}

func TestEngine_DeterministicAcrossRuns(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	first, err := engine.Price(ctx, validTestContract(), 300)
	require.NoError(t, err)

	second, err := engine.Price(ctx, validTestContract(), 300)
	require.NoError(t, err)

	assert.Equal(t, first.Value, second.Value, "identical inputs must price identically")
}
