package lattice

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Engine runs the backward-induction pass that values a contract on the
// lattice. The engine holds no per-invocation state; a single instance is
// safe for concurrent use across independent contracts.
type Engine struct {
	logger  *slog.Logger
	timeout time.Duration
}

// NewEngine creates a pricing engine with the given logger
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		logger:  logger,
		timeout: DefaultPricingTimeout,
	}
}

// SetTimeout overrides the per-invocation timeout
func (e *Engine) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		e.timeout = timeout
	}
}

// Result holds the outputs of a single pricing invocation. The grids are
// owned by the result and are read-only snapshots from the caller's point
// of view.
type Result struct {
	Contract    Contract      `json:"contract"`
	Calibration Calibration   `json:"calibration"`
	Value       float64       `json:"value"`
	Elapsed     time.Duration `json:"elapsed"`

	// Values maps every node to the fair value of holding the option there
	Values *Grid `json:"-"`
	// Policy maps every node to the exercise/continue decision
	Policy *PolicyGrid `json:"-"`
}

// Price values the contract on a lattice with the given number of steps.
//
// The pass fills the terminal step from the payoff, then walks backward one
// step at a time. At each interior node the continuation value is the
// discounted risk-neutral expectation over the two successor nodes; American
// contracts take the maximum of continuation and immediate exercise, with
// ties resolved in favor of exercise so that boundary extraction is
// reproducible. European contracts always continue before maturity.
//
// The root value V(0,0) is the option price. Any non-finite node value
// aborts the invocation with an InstabilityError.
func (e *Engine) Price(ctx context.Context, c Contract, steps int) (*Result, error) {
	start := time.Now()

	e.logger.InfoContext(ctx, "starting lattice pricing",
		"kind", c.Kind.String(),
		"style", c.Style.String(),
		"steps", steps,
		"spot", c.Spot,
		"strike", c.Strike,
		"maturity", c.Maturity,
		"rate", c.Rate,
		"volatility", c.Volatility,
		"timeout", e.timeout,
	)

	calcCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cal, err := Calibrate(c, steps)
	if err != nil {
		e.logger.ErrorContext(ctx, "lattice calibration failed", "error", err)
		return nil, fmt.Errorf("calibrate lattice: %w", err)
	}

	e.logger.DebugContext(ctx, "lattice calibrated",
		"dt", cal.Dt,
		"up", cal.Up,
		"down", cal.Down,
		"up_prob", cal.UpProb,
		"discount", cal.Discount,
	)

	geom := NewGeometry(c.Spot, cal)
	payoff := NewPayoff(c.Kind, c.Strike)
	values := NewGrid(steps)
	policy := NewPolicyGrid(steps)

	// Terminal step: value is the payoff itself, and a node counts as
	// exercised only when that payoff is strictly positive. Worthless
	// terminal nodes are recorded as "continue" so they never enter the
	// exercise region.
	for node := 0; node <= steps; node++ {
		v := payoff.At(geom.priceAt(steps, node))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, InstabilityError{Step: steps, Node: node, Value: v}
		}
		values.set(steps, node, v)
		policy.set(steps, node, v > 0)
	}

	american := c.Style == American
	q := cal.UpProb

	for step := steps - 1; step >= 0; step-- {
		select {
		case <-calcCtx.Done():
			e.logger.WarnContext(ctx, "lattice pricing cancelled",
				"step", step,
				"error", calcCtx.Err(),
			)
			return nil, fmt.Errorf("pricing cancelled at step %d: %w", step, calcCtx.Err())
		default:
		}

		for node := 0; node <= step; node++ {
			continuation := cal.Discount * (q*values.at(step+1, node+1) + (1-q)*values.at(step+1, node))

			var v float64
			var exercise bool
			if american {
				immediate := payoff.At(geom.priceAt(step, node))
				// Ties go to exercise: a deterministic convention that
				// keeps the boundary reproducible across runs.
				exercise = immediate >= continuation
				v = math.Max(immediate, continuation)
			} else {
				v = continuation
			}

			if math.IsNaN(v) || math.IsInf(v, 0) {
				e.logger.ErrorContext(ctx, "non-finite value during backward induction",
					"step", step,
					"node", node,
					"value", v,
				)
				return nil, InstabilityError{Step: step, Node: node, Value: v}
			}

			values.set(step, node, v)
			policy.set(step, node, exercise)
		}
	}

	rootValue := values.at(0, 0)
	if math.IsNaN(rootValue) || math.IsInf(rootValue, 0) {
		return nil, InstabilityError{Step: 0, Node: 0, Value: rootValue}
	}

	elapsed := time.Since(start)
	e.logger.InfoContext(ctx, "lattice pricing completed",
		"kind", c.Kind.String(),
		"style", c.Style.String(),
		"steps", steps,
		"value", rootValue,
		"nodes", nodeCount(steps),
		"duration", elapsed,
	)

	return &Result{
		Contract:    c,
		Calibration: cal,
		Value:       rootValue,
		Elapsed:     elapsed,
		Values:      values,
		Policy:      policy,
	}, nil
}
