package lattice

import (
	"math"
)

// Geometry computes underlying prices at lattice nodes on demand. It stores
// only the calibrated constants, not the prices themselves, so construction
// is O(1) regardless of lattice size.
type Geometry struct {
	spot    float64
	steps   int
	logSpot float64
	logUp   float64
}

// NewGeometry creates a price geometry for the given spot and calibration
func NewGeometry(spot float64, cal Calibration) Geometry {
	return Geometry{
		spot:    spot,
		steps:   cal.Steps,
		logSpot: math.Log(spot),
		logUp:   math.Log(cal.Up),
	}
}

// Steps returns the number of time steps covered by the geometry
func (g Geometry) Steps() int {
	return g.steps
}

// Spot returns the initial underlying price at node (0,0)
func (g Geometry) Spot() float64 {
	return g.spot
}

// Price returns the underlying price at step i, node j, valid for
// 0 <= j <= i <= steps. Out-of-range indices fail with an IndexError.
//
// The price S0 * u^j * d^(i-j) is evaluated in log space as
// exp(ln(S0) + (2j - i)*ln(u)), using d = 1/u. A single exponentiation per
// call keeps rounding error flat across the O(n^2) lookups of a full
// backward-induction pass, where repeated multiplication would compound.
func (g Geometry) Price(step, node int) (float64, error) {
	if step < 0 || step > g.steps || node < 0 || node > step {
		return 0, IndexError{Step: step, Node: node, Steps: g.steps}
	}
	return g.priceAt(step, node), nil
}

// priceAt is the unchecked fast path used by the engine's inner loop, where
// the loop bounds already guarantee a valid index
func (g Geometry) priceAt(step, node int) float64 {
	return math.Exp(g.logSpot + float64(2*node-step)*g.logUp)
}
