package lattice

import (
	"fmt"
	"math"
)

// Calibrate derives the CRR lattice constants from a contract and step count
//
// The Cox-Ross-Rubinstein parameterization matches the first two moments of
// the discrete lattice to the continuous lognormal process:
//
//	dt = T/n, u = exp(sigma*sqrt(dt)), d = 1/u
//	q  = (exp(r*dt) - d) / (u - d)
//
// Parameters:
//   - c: the contract supplying maturity, rate and volatility
//   - steps: number of lattice time steps, at least MinSteps
//
// Returns: the immutable Calibration record
//
// The derived risk-neutral probability must lie strictly inside (0,1) for
// the lattice to be arbitrage-free. Combinations that push q outside that
// interval (for example a rate step large relative to the volatility step)
// fail with a ValidationError; the probability is never clamped.
func Calibrate(c Contract, steps int) (Calibration, error) {
	if err := c.Validate(); err != nil {
		return Calibration{}, err
	}
	if steps < MinSteps {
		return Calibration{}, ValidationError{
			Field:   "steps",
			Message: fmt.Sprintf("step count must be at least %d", MinSteps),
			Value:   steps,
		}
	}

	dt := c.Maturity / float64(steps)
	up := math.Exp(c.Volatility * math.Sqrt(dt))
	down := 1 / up
	growth := math.Exp(c.Rate * dt)
	upProb := (growth - down) / (up - down)
	discount := math.Exp(-c.Rate * dt)

	if math.IsNaN(upProb) || upProb <= 0 || upProb >= 1 {
		return Calibration{}, ValidationError{
			Field: "up_prob",
			Message: fmt.Sprintf("risk-neutral probability %.6f outside (0,1): rate %.4f is arbitrage-inconsistent with volatility %.4f at %d steps",
				upProb, c.Rate, c.Volatility, steps),
			Value: upProb,
		}
	}
	if math.IsNaN(discount) || math.IsInf(discount, 0) || discount <= 0 {
		return Calibration{}, ValidationError{
			Field:   "discount",
			Message: fmt.Sprintf("one-step discount factor %v is not positive and finite", discount),
			Value:   discount,
		}
	}

	return Calibration{
		Steps:    steps,
		Dt:       dt,
		Up:       up,
		Down:     down,
		UpProb:   upProb,
		Discount: discount,
	}, nil
}
