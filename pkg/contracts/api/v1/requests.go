// Package api contains versioned API contract definitions for the option
// pricing service. Version v1 is the current stable API version.
package api

// ValueRequest asks for the value of a single option contract
type ValueRequest struct {
	Spot       float64 `json:"spot" validate:"required,gt=0"`
	Strike     float64 `json:"strike" validate:"required,gt=0"`
	Maturity   float64 `json:"maturity" validate:"required,gt=0"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility" validate:"required,gt=0"`
	Kind       string  `json:"kind" validate:"required,oneof=call put"`
	Style      string  `json:"style,omitempty" validate:"omitempty,oneof=american european"`
	Steps      int     `json:"steps,omitempty" validate:"omitempty,min=1"`

	// WithBoundary includes the exercise boundary in the response.
	// Only meaningful for American-style contracts.
	WithBoundary bool `json:"with_boundary,omitempty"`
}

// ChainRequest prices one option per strike against shared market parameters
type ChainRequest struct {
	Spot       float64   `json:"spot" validate:"required,gt=0"`
	Maturity   float64   `json:"maturity" validate:"required,gt=0"`
	Rate       float64   `json:"rate"`
	Volatility float64   `json:"volatility" validate:"required,gt=0"`
	Kind       string    `json:"kind" validate:"required,oneof=call put"`
	Style      string    `json:"style,omitempty" validate:"omitempty,oneof=american european"`
	Steps      int       `json:"steps,omitempty" validate:"omitempty,min=1"`
	Strikes    []float64 `json:"strikes" validate:"required,min=1,max=500,dive,gt=0"`
}

// GridRequest asks for the full value and policy grids of a contract.
// Grid responses are quadratic in the step count, so the server enforces
// a tighter step cap than for plain value requests.
type GridRequest struct {
	Spot       float64 `json:"spot" validate:"required,gt=0"`
	Strike     float64 `json:"strike" validate:"required,gt=0"`
	Maturity   float64 `json:"maturity" validate:"required,gt=0"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility" validate:"required,gt=0"`
	Kind       string  `json:"kind" validate:"required,oneof=call put"`
	Style      string  `json:"style,omitempty" validate:"omitempty,oneof=american european"`
	Steps      int     `json:"steps,omitempty" validate:"omitempty,min=1"`
}
