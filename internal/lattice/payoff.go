package lattice

import (
	"math"
)

// Payoff computes the immediate exercise value of an option at a given
// underlying price. Pure and side-effect free.
type Payoff struct {
	Kind   OptionKind
	Strike float64
}

// NewPayoff creates a payoff function for the given kind and strike
func NewPayoff(kind OptionKind, strike float64) Payoff {
	return Payoff{Kind: kind, Strike: strike}
}

// At returns the exercise value at the given underlying price:
// max(price - strike, 0) for a call, max(strike - price, 0) for a put.
// Unknown kinds return 0; the kind is validated before pricing starts, so
// that branch is unreachable through the engine.
func (p Payoff) At(price float64) float64 {
	switch p.Kind {
	case Call:
		return math.Max(price-p.Strike, 0)
	case Put:
		return math.Max(p.Strike-price, 0)
	default:
		return 0
	}
}
