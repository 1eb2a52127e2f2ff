package lattice

import (
	"math"
)

// BlackScholes returns the closed-form European value of the contract
//
// The formula discounts the strike at the risk-free rate and weights spot
// and strike by the standard normal CDF of
//
//	d1 = (ln(S0/K) + (r + sigma^2/2)*T) / (sigma*sqrt(T))
//	d2 = d1 - sigma*sqrt(T)
//
// Parameters:
//   - c: the contract to value; the Style field is ignored since the closed
//     form is European by construction
//
// Returns: the option value
//
// The result serves as the no-early-exercise baseline when comparing
// against lattice prices. For a call on a non-dividend-paying underlying
// with r >= 0, early exercise is never optimal, so the American lattice
// price converges to this value as the step count grows.
//
// Reference: Black, F. and Scholes, M. (1973). The pricing of options and
// corporate liabilities. Journal of Political Economy, 81(3), pp.637-654.
func BlackScholes(c Contract) (float64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	sqrtT := math.Sqrt(c.Maturity)
	d1 := (math.Log(c.Spot/c.Strike) + (c.Rate+0.5*c.Volatility*c.Volatility)*c.Maturity) / (c.Volatility * sqrtT)
	d2 := d1 - c.Volatility*sqrtT
	discountedStrike := c.Strike * math.Exp(-c.Rate*c.Maturity)

	var value float64
	switch c.Kind {
	case Call:
		value = c.Spot*normCDF(d1) - discountedStrike*normCDF(d2)
	case Put:
		value = discountedStrike*normCDF(-d2) - c.Spot*normCDF(-d1)
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, InstabilityError{Step: 0, Node: 0, Value: value}
	}

	return value, nil
}

// normCDF is the standard normal cumulative distribution function
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}
