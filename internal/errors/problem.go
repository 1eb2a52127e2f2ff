package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"optlattice/internal/lattice"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// MapPricingError maps lattice domain errors to HTTP problem details.
// Every error type the engine and boundary extractor can return has a
// distinct problem type so clients can dispatch without string matching.
func MapPricingError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/api/pricing#trace-%s", traceID)

	var valErr lattice.ValidationError
	if errors.As(err, &valErr) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeInvalidContract,
			"Invalid Contract Parameters",
			valErr.Message,
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INVALID_PARAMETERS").
			WithExtension("field", valErr.Field).
			WithExtension("value", valErr.Value)
	}

	var instErr lattice.InstabilityError
	if errors.As(err, &instErr) {
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeInstability,
			"Numerical Instability",
			"Backward induction produced a non-finite value. The contract parameters are too extreme for the requested step count.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "NUMERICAL_INSTABILITY").
			WithExtension("step", instErr.Step).
			WithExtension("node", instErr.Node)
	}

	var bndErr lattice.BoundaryError
	if errors.As(err, &bndErr) {
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeBoundary,
			"Boundary Extraction Failed",
			bndErr.Message,
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "BOUNDARY_EXTRACTION_FAILED").
			WithExtension("step", bndErr.Step)
	}

	var idxErr lattice.IndexError
	if errors.As(err, &idxErr) {
		// Index errors are programming errors, never user input.
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeLatticeIndex,
			"Lattice Lookup Out of Range",
			err.Error(),
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "LATTICE_INDEX")
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		problemType := TypeInternal
		switch apiErr.StatusCode {
		case http.StatusBadRequest:
			problemType = TypeValidation
		case http.StatusNotFound:
			problemType = TypeNotFound
		case http.StatusTooManyRequests:
			problemType = TypeRateLimit
		case http.StatusServiceUnavailable:
			problemType = TypeServiceDown
		}
		problem := NewProblemDetails(
			apiErr.StatusCode,
			problemType,
			http.StatusText(apiErr.StatusCode),
			apiErr.Message,
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", apiErr.ErrorCode)
		if apiErr.Details != nil {
			problem.WithExtension("details", apiErr.Details)
		}
		return problem
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request.",
		instance,
	).WithExtension("trace_id", traceID).
		WithExtension("error_code", "INTERNAL_ERROR")
}
