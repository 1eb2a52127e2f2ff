package lattice

// Grid stores one float64 per lattice node in a compact triangular layout.
// Step i holds i+1 nodes, so a grid over n steps stores (n+1)(n+2)/2 values
// in a single backing slice. A grid is owned by exactly one pricing
// invocation and is never shared across invocations.
type Grid struct {
	steps int
	data  []float64
}

// NewGrid allocates a grid covering steps 0 through steps inclusive
func NewGrid(steps int) *Grid {
	return &Grid{
		steps: steps,
		data:  make([]float64, nodeCount(steps)),
	}
}

// Steps returns the number of time steps covered by the grid
func (g *Grid) Steps() int {
	return g.steps
}

// At returns the value at step i, node j, valid for 0 <= j <= i <= steps
func (g *Grid) At(step, node int) (float64, error) {
	if step < 0 || step > g.steps || node < 0 || node > step {
		return 0, IndexError{Step: step, Node: node, Steps: g.steps}
	}
	return g.data[nodeIndex(step, node)], nil
}

// Row returns a copy of all node values at the given step, ordered by node
// index. Callers may mutate the copy freely; the grid itself is unaffected.
func (g *Grid) Row(step int) ([]float64, error) {
	if step < 0 || step > g.steps {
		return nil, IndexError{Step: step, Node: 0, Steps: g.steps}
	}
	row := make([]float64, step+1)
	copy(row, g.data[nodeIndex(step, 0):nodeIndex(step, 0)+step+1])
	return row, nil
}

// at is the unchecked fast path used by the engine's inner loop
func (g *Grid) at(step, node int) float64 {
	return g.data[nodeIndex(step, node)]
}

// set is the unchecked fast path used by the engine's inner loop
func (g *Grid) set(step, node int, v float64) {
	g.data[nodeIndex(step, node)] = v
}

// PolicyGrid stores the exercise/continue decision for every lattice node in
// the same triangular layout as Grid. True means immediate exercise is
// optimal at that node.
type PolicyGrid struct {
	steps int
	data  []bool
}

// NewPolicyGrid allocates a policy grid covering steps 0 through steps
func NewPolicyGrid(steps int) *PolicyGrid {
	return &PolicyGrid{
		steps: steps,
		data:  make([]bool, nodeCount(steps)),
	}
}

// Steps returns the number of time steps covered by the grid
func (g *PolicyGrid) Steps() int {
	return g.steps
}

// At returns the decision at step i, node j, valid for 0 <= j <= i <= steps
func (g *PolicyGrid) At(step, node int) (bool, error) {
	if step < 0 || step > g.steps || node < 0 || node > step {
		return false, IndexError{Step: step, Node: node, Steps: g.steps}
	}
	return g.data[nodeIndex(step, node)], nil
}

// Row returns a copy of all decisions at the given step, ordered by node index
func (g *PolicyGrid) Row(step int) ([]bool, error) {
	if step < 0 || step > g.steps {
		return nil, IndexError{Step: step, Node: 0, Steps: g.steps}
	}
	row := make([]bool, step+1)
	copy(row, g.data[nodeIndex(step, 0):nodeIndex(step, 0)+step+1])
	return row, nil
}

// at is the unchecked fast path used by the engine's inner loop
func (g *PolicyGrid) at(step, node int) bool {
	return g.data[nodeIndex(step, node)]
}

// set is the unchecked fast path used by the engine's inner loop
func (g *PolicyGrid) set(step, node int, v bool) {
	g.data[nodeIndex(step, node)] = v
}

// nodeIndex maps (step, node) to the backing slice offset. Steps 0..step-1
// contribute step*(step+1)/2 leading entries.
func nodeIndex(step, node int) int {
	return step*(step+1)/2 + node
}

// nodeCount returns the total number of nodes in a lattice over the given
// number of steps
func nodeCount(steps int) int {
	return (steps + 1) * (steps + 2) / 2
}
