package lattice

import (
	"fmt"
)

// BoundaryPoint is the exercise boundary entry for a single time step.
// When Exercise is false, no node at the step is optimally exercised and
// the Node and Price fields carry no meaning.
type BoundaryPoint struct {
	Step     int     `json:"step"`
	Time     float64 `json:"time"`
	Node     int     `json:"node"`
	Price    float64 `json:"price"`
	Exercise bool    `json:"exercise"`
}

// Boundary is the per-step critical exercise price extracted from a policy
// grid, ordered by time step from 0 to the terminal step
type Boundary struct {
	Kind   OptionKind      `json:"kind"`
	Points []BoundaryPoint `json:"points"`
}

// ExercisePoints returns only the steps at which early exercise occurs,
// preserving step order
func (b *Boundary) ExercisePoints() []BoundaryPoint {
	points := make([]BoundaryPoint, 0, len(b.Points))
	for _, p := range b.Points {
		if p.Exercise {
			points = append(points, p)
		}
	}
	return points
}

// ExtractBoundary derives the exercise boundary from a pricing result.
//
// For each time step the candidate nodes are those where the policy says
// exercise and the payoff is strictly positive. Zero-payoff nodes that the
// tie-break marked as exercise sit in the worthless deep-out-of-the-money
// region and carry no economic exercise decision, so they are excluded
// before the region shape is checked.
//
// The candidate set must form one contiguous interval anchored at the low
// end of the price range for a put (node 0) or at the high end for a call
// (node == step). The boundary node is the highest candidate for a put and
// the lowest for a call, and its price is the critical price for the step.
// Any other shape indicates a calibration or payoff defect and fails with a
// BoundaryError; the price in the result remains valid regardless.
func ExtractBoundary(res *Result) (*Boundary, error) {
	if res == nil || res.Values == nil || res.Policy == nil {
		return nil, fmt.Errorf("extract boundary: result has no grids")
	}
	if err := res.Contract.Validate(); err != nil {
		return nil, fmt.Errorf("extract boundary: %w", err)
	}

	steps := res.Policy.Steps()
	geom := NewGeometry(res.Contract.Spot, res.Calibration)
	payoff := NewPayoff(res.Contract.Kind, res.Contract.Strike)
	isPut := res.Contract.Kind == Put

	boundary := &Boundary{
		Kind:   res.Contract.Kind,
		Points: make([]BoundaryPoint, 0, steps+1),
	}

	for step := 0; step <= steps; step++ {
		first, last, count := -1, -1, 0
		for node := 0; node <= step; node++ {
			if !res.Policy.at(step, node) {
				continue
			}
			if payoff.At(geom.priceAt(step, node)) <= 0 {
				continue
			}
			if first < 0 {
				first = node
			}
			last = node
			count++
		}

		if count == 0 {
			boundary.Points = append(boundary.Points, BoundaryPoint{
				Step: step,
				Time: float64(step) * res.Calibration.Dt,
			})
			continue
		}

		if last-first+1 != count {
			return nil, BoundaryError{
				Step:    step,
				Message: fmt.Sprintf("exercise region has a gap between nodes %d and %d", first, last),
			}
		}
		if isPut && first != 0 {
			return nil, BoundaryError{
				Step:    step,
				Message: fmt.Sprintf("put exercise region starts at node %d instead of the lowest price", first),
			}
		}
		if !isPut && last != step {
			return nil, BoundaryError{
				Step:    step,
				Message: fmt.Sprintf("call exercise region ends at node %d instead of the highest price", last),
			}
		}

		criticalNode := first
		if isPut {
			criticalNode = last
		}

		boundary.Points = append(boundary.Points, BoundaryPoint{
			Step:     step,
			Time:     float64(step) * res.Calibration.Dt,
			Node:     criticalNode,
			Price:    geom.priceAt(step, criticalNode),
			Exercise: true,
		})
	}

	return boundary, nil
}
