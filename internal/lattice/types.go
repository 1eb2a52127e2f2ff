package lattice

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// OptionKind identifies the payoff direction of a contract
type OptionKind string

const (
	// Call pays max(S - K, 0) on exercise
	Call OptionKind = "call"
	// Put pays max(K - S, 0) on exercise
	Put OptionKind = "put"
)

// String returns the string representation of the option kind
func (k OptionKind) String() string {
	return string(k)
}

// IsValid checks if the option kind is a known value
func (k OptionKind) IsValid() bool {
	return k == Call || k == Put
}

// ParseOptionKind converts a string into an OptionKind
func ParseOptionKind(s string) (OptionKind, error) {
	switch OptionKind(strings.ToLower(strings.TrimSpace(s))) {
	case Call:
		return Call, nil
	case Put:
		return Put, nil
	default:
		return "", ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("unknown option kind %q, expected call or put", s),
			Value:   s,
		}
	}
}

// ExerciseStyle identifies when a contract may be exercised
type ExerciseStyle string

const (
	// American contracts may be exercised at any step up to maturity
	American ExerciseStyle = "american"
	// European contracts may only be exercised at maturity
	European ExerciseStyle = "european"
)

// String returns the string representation of the exercise style
func (s ExerciseStyle) String() string {
	return string(s)
}

// IsValid checks if the exercise style is a known value
func (s ExerciseStyle) IsValid() bool {
	return s == American || s == European
}

// ParseExerciseStyle converts a string into an ExerciseStyle
func ParseExerciseStyle(s string) (ExerciseStyle, error) {
	switch ExerciseStyle(strings.ToLower(strings.TrimSpace(s))) {
	case American:
		return American, nil
	case European:
		return European, nil
	default:
		return "", ValidationError{
			Field:   "style",
			Message: fmt.Sprintf("unknown exercise style %q, expected american or european", s),
			Value:   s,
		}
	}
}

// Contract describes a single option to be priced. The record is immutable
// once handed to the engine; every invocation works on its own copy.
type Contract struct {
	Spot       float64       `json:"spot"`       // Current underlying price, > 0
	Strike     float64       `json:"strike"`     // Exercise price, > 0
	Maturity   float64       `json:"maturity"`   // Time to expiry in years, > 0
	Rate       float64       `json:"rate"`       // Continuously compounded risk-free rate
	Volatility float64       `json:"volatility"` // Annualized volatility, > 0
	Kind       OptionKind    `json:"kind"`
	Style      ExerciseStyle `json:"style"`
}

// Validate checks the contract fields and returns a ValidationError
// describing the first violation found
func (c Contract) Validate() error {
	switch {
	case math.IsNaN(c.Spot) || math.IsInf(c.Spot, 0) || c.Spot <= 0:
		return ValidationError{Field: "spot", Message: "spot price must be positive and finite", Value: c.Spot}
	case math.IsNaN(c.Strike) || math.IsInf(c.Strike, 0) || c.Strike <= 0:
		return ValidationError{Field: "strike", Message: "strike price must be positive and finite", Value: c.Strike}
	case math.IsNaN(c.Maturity) || math.IsInf(c.Maturity, 0) || c.Maturity <= 0:
		return ValidationError{Field: "maturity", Message: "maturity must be positive and finite", Value: c.Maturity}
	case math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0):
		return ValidationError{Field: "rate", Message: "rate must be finite", Value: c.Rate}
	case math.IsNaN(c.Volatility) || math.IsInf(c.Volatility, 0) || c.Volatility <= 0:
		return ValidationError{Field: "volatility", Message: "volatility must be positive and finite", Value: c.Volatility}
	case !c.Kind.IsValid():
		return ValidationError{Field: "kind", Message: fmt.Sprintf("unknown option kind %q", string(c.Kind)), Value: string(c.Kind)}
	case !c.Style.IsValid():
		return ValidationError{Field: "style", Message: fmt.Sprintf("unknown exercise style %q", string(c.Style)), Value: string(c.Style)}
	}
	return nil
}

// IsValid checks if the contract is well formed
func (c Contract) IsValid() bool {
	return c.Validate() == nil
}

// Calibration holds the lattice constants derived from a contract.
// Immutable once derived.
type Calibration struct {
	Steps    int     `json:"steps"`    // Number of time steps n
	Dt       float64 `json:"dt"`       // Step size, Maturity / Steps
	Up       float64 `json:"up"`       // Up factor u = exp(sigma*sqrt(dt))
	Down     float64 `json:"down"`     // Down factor d = 1/u
	UpProb   float64 `json:"up_prob"`  // Risk-neutral probability of an up move
	Discount float64 `json:"discount"` // One-step discount factor exp(-r*dt)
}

// IsValid checks the calibration invariants: u > 1 >= d > 0, u*d = 1 and the
// risk-neutral probability strictly inside (0,1)
func (cal Calibration) IsValid() bool {
	return cal.Steps >= 1 &&
		cal.Dt > 0 &&
		cal.Up >= 1 && cal.Down > 0 && cal.Down <= 1 &&
		math.Abs(cal.Up*cal.Down-1) < recombinationTolerance &&
		cal.UpProb > 0 && cal.UpProb < 1 &&
		cal.Discount > 0
}

// Constants for default values
const (
	// DefaultSteps is the lattice resolution used when the caller does not
	// specify a step count
	DefaultSteps = 300

	// MinSteps is the smallest meaningful lattice
	MinSteps = 1

	// DefaultPricingTimeout bounds a single backward-induction pass
	DefaultPricingTimeout = 30 * time.Second

	// recombinationTolerance is the floating tolerance for the u*d = 1 check
	recombinationTolerance = 1e-9
)
