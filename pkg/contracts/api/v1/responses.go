package api

// Calibration carries the risk-neutral lattice parameters used for a run
type Calibration struct {
	StepSize  float64 `json:"step_size"`
	Up        float64 `json:"up"`
	Down      float64 `json:"down"`
	UpProb    float64 `json:"up_prob"`
	Discount  float64 `json:"discount"`
	StepCount int     `json:"step_count"`
}

// BoundaryPoint is one per-step critical price on the exercise boundary
type BoundaryPoint struct {
	Step     int     `json:"step"`
	Time     float64 `json:"time"`
	Price    float64 `json:"price,omitempty"`
	Exercise bool    `json:"exercise"`
}

// ValueResponse is the result of pricing a single contract
type ValueResponse struct {
	RequestID string `json:"request_id"`

	Spot       float64 `json:"spot"`
	Strike     float64 `json:"strike"`
	Maturity   float64 `json:"maturity"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility"`
	Kind       string  `json:"kind"`
	Style      string  `json:"style"`
	Steps      int     `json:"steps"`

	Value float64 `json:"value"`

	// EuropeanValue is the lattice value of the otherwise-identical
	// European contract; the early exercise premium is the difference.
	EuropeanValue        float64 `json:"european_value"`
	EarlyExercisePremium float64 `json:"early_exercise_premium"`

	// BlackScholes is the closed-form European reference value.
	BlackScholes float64 `json:"black_scholes"`

	Calibration Calibration     `json:"calibration"`
	Boundary    []BoundaryPoint `json:"boundary,omitempty"`

	ElapsedMs float64 `json:"elapsed_ms"`
}

// ChainEntry is the per-strike result inside a chain response
type ChainEntry struct {
	Strike               float64 `json:"strike"`
	Value                float64 `json:"value"`
	EuropeanValue        float64 `json:"european_value"`
	EarlyExercisePremium float64 `json:"early_exercise_premium"`
	BlackScholes         float64 `json:"black_scholes"`
	Error                string  `json:"error,omitempty"`
}

// ChainResponse is the result of pricing an option chain
type ChainResponse struct {
	RequestID string       `json:"request_id"`
	Kind      string       `json:"kind"`
	Style     string       `json:"style"`
	Steps     int          `json:"steps"`
	Entries   []ChainEntry `json:"entries"`
	ElapsedMs float64      `json:"elapsed_ms"`
}

// GridResponse carries the full value and policy grids.
// Row i has i+1 entries, matching the recombining lattice shape.
type GridResponse struct {
	RequestID   string      `json:"request_id"`
	Steps       int         `json:"steps"`
	Value       float64     `json:"value"`
	Calibration Calibration `json:"calibration"`
	Times       []float64   `json:"times"`
	Prices      [][]float64 `json:"prices"`
	Values      [][]float64 `json:"values"`
	Policy      [][]bool    `json:"policy"`
	ElapsedMs   float64     `json:"elapsed_ms"`
}

// HealthResponse reports service health
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Uptime     string            `json:"uptime"`
	Components map[string]string `json:"components,omitempty"`
}
