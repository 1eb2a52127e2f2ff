package lattice

import (
	"fmt"
)

// ValidationError reports a malformed or arbitrage-inconsistent parameter.
// It is terminal for the invocation that raised it; the caller must correct
// the inputs and re-invoke.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid parameters: %s", e.Message)
}

// IndexError reports a geometry or grid lookup outside the valid node
// triangle 0 <= node <= step <= steps. It always indicates a programming
// error in the caller, never bad user input.
type IndexError struct {
	Step  int `json:"step"`
	Node  int `json:"node"`
	Steps int `json:"steps"`
}

// Error implements the error interface
func (e IndexError) Error() string {
	return fmt.Sprintf("lattice index out of range: node %d at step %d (lattice has %d steps)", e.Node, e.Step, e.Steps)
}

// InstabilityError reports a NaN or infinite value produced during backward
// induction. The whole pricing invocation fails; the cause is deterministic,
// so retrying with the same inputs reproduces the failure.
type InstabilityError struct {
	Step  int     `json:"step"`
	Node  int     `json:"node"`
	Value float64 `json:"value"`
}

// Error implements the error interface
func (e InstabilityError) Error() string {
	return fmt.Sprintf("numerical instability: non-finite value %v at step %d node %d", e.Value, e.Step, e.Node)
}

// BoundaryError reports a non-contiguous exercise region found during
// boundary extraction. It is distinct from a pricing failure: the price
// computed by the engine remains valid even when the boundary is not.
type BoundaryError struct {
	Step    int    `json:"step"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e BoundaryError) Error() string {
	return fmt.Sprintf("boundary extraction failed at step %d: %s", e.Step, e.Message)
}
