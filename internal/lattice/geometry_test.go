package lattice

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometry_EdgeNodePrices(t *testing.T) {
	c := validTestContract()
	cal, err := Calibrate(c, 50)
	require.NoError(t, err)

	geom := NewGeometry(c.Spot, cal)

	for _, step := range []int{0, 1, 5, 25, 50} {
		lowest, err := geom.Price(step, 0)
		require.NoError(t, err)
		assert.InDelta(t, c.Spot*math.Pow(cal.Down, float64(step)), lowest, 1e-9,
			"price at node 0 should be spot times down^step")

		highest, err := geom.Price(step, step)
		require.NoError(t, err)
		assert.InDelta(t, c.Spot*math.Pow(cal.Up, float64(step)), highest, 1e-9,
			"price at the top node should be spot times up^step")
	}

	root, err := geom.Price(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, c.Spot, root, 1e-12, "root node must carry the spot price")
}

func TestGeometry_StrictlyIncreasingInNode(t *testing.T) {
	c := validTestContract()
	cal, err := Calibrate(c, 120)
	require.NoError(t, err)

	geom := NewGeometry(c.Spot, cal)

	for _, step := range []int{1, 2, 10, 60, 120} {
		prev, err := geom.Price(step, 0)
		require.NoError(t, err)
		for node := 1; node <= step; node++ {
			price, err := geom.Price(step, node)
			require.NoError(t, err)
			assert.Greater(t, price, prev,
				"price must strictly increase with the node index at step %d", step)
			prev = price
		}
	}
}

func TestGeometry_UpStepIdentity(t *testing.T) {
	c := validTestContract()
	cal, err := Calibrate(c, 40)
	require.NoError(t, err)

	geom := NewGeometry(c.Spot, cal)

	// Moving up one step multiplies the price by the up factor, and the
	// recombining identity holds: an up move after a down move lands back
	// on the same price.
	for step := 0; step < 40; step++ {
		for node := 0; node <= step; node++ {
			base, err := geom.Price(step, node)
			require.NoError(t, err)

			up, err := geom.Price(step+1, node+1)
			require.NoError(t, err)
			assert.InDelta(t, base*cal.Up, up, base*1e-12)

			down, err := geom.Price(step+1, node)
			require.NoError(t, err)
			assert.InDelta(t, base*cal.Down, down, base*1e-12)
		}
	}
}

func TestGeometry_IndexOutOfRange(t *testing.T) {
	c := validTestContract()
	cal, err := Calibrate(c, 10)
	require.NoError(t, err)

	geom := NewGeometry(c.Spot, cal)

	tests := []struct {
		name string
		step int
		node int
	}{
		{"negative_step", -1, 0},
		{"step_beyond_lattice", 11, 0},
		{"negative_node", 5, -1},
		{"node_beyond_step", 5, 6},
		{"node_far_beyond_step", 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geom.Price(tt.step, tt.node)
			require.Error(t, err)

			var ierr IndexError
			require.True(t, errors.As(err, &ierr), "error should be an IndexError, got %T", err)
			assert.Equal(t, tt.step, ierr.Step)
			assert.Equal(t, tt.node, ierr.Node)
			assert.Equal(t, 10, ierr.Steps)
		})
	}
}

func TestGrid_StorageAndBounds(t *testing.T) {
	g := NewGrid(3)
	require.Equal(t, 3, g.Steps())

	// Fill every node with a distinct value and read it back
	for step := 0; step <= 3; step++ {
		for node := 0; node <= step; node++ {
			g.set(step, node, float64(step*10+node))
		}
	}
	for step := 0; step <= 3; step++ {
		for node := 0; node <= step; node++ {
			v, err := g.At(step, node)
			require.NoError(t, err)
			assert.Equal(t, float64(step*10+node), v)
		}
	}

	_, err := g.At(4, 0)
	assert.Error(t, err)
	_, err = g.At(2, 3)
	assert.Error(t, err)
	_, err = g.At(-1, 0)
	assert.Error(t, err)

	row, err := g.Row(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 21, 22}, row)

	// Mutating the returned row must not touch the grid
	row[0] = -1
	v, err := g.At(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)

	_, err = g.Row(7)
	assert.Error(t, err)
}

func TestPolicyGrid_StorageAndBounds(t *testing.T) {
	g := NewPolicyGrid(2)
	require.Equal(t, 2, g.Steps())

	g.set(2, 1, true)

	v, err := g.At(2, 1)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = g.At(2, 0)
	require.NoError(t, err)
	assert.False(t, v)

	_, err = g.At(3, 0)
	assert.Error(t, err)

	row, err := g.Row(2)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, row)
}

func TestNodeIndexLayout(t *testing.T) {
	// The triangular layout must place rows back to back with no overlap
	assert.Equal(t, 0, nodeIndex(0, 0))
	assert.Equal(t, 1, nodeIndex(1, 0))
	assert.Equal(t, 2, nodeIndex(1, 1))
	assert.Equal(t, 3, nodeIndex(2, 0))
	assert.Equal(t, 5, nodeIndex(2, 2))
	assert.Equal(t, 6, nodeIndex(3, 0))

	assert.Equal(t, 1, nodeCount(0))
	assert.Equal(t, 3, nodeCount(1))
	assert.Equal(t, 6, nodeCount(2))
	assert.Equal(t, 45451, nodeCount(300))
}
