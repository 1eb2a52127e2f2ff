package exporter

import (
	"fmt"

	"optlattice/internal/lattice"
)

// GridExporter writes full value and policy grids as CSV
type GridExporter struct {
	writer *CSVWriter
}

// NewGridExporter creates a grid exporter rooted at outputDir
func NewGridExporter(outputDir string) *GridExporter {
	return &GridExporter{writer: NewCSVWriter(outputDir)}
}

// gridHeaders is the column layout of a value-grid CSV file
var gridHeaders = []string{"step", "node", "price", "value", "exercise"}

// Export writes one row per lattice node, ordered by step then node.
// Grids are quadratic in the step count, so rows are streamed instead of
// buffered.
func (e *GridExporter) Export(res *lattice.Result, filePath string) error {
	if res == nil || res.Values == nil || res.Policy == nil {
		return fmt.Errorf("export grid: result has no grids")
	}

	steps := res.Values.Steps()
	geom := lattice.NewGeometry(res.Contract.Spot, res.Calibration)

	stream, err := e.writer.CreateStreamWriter(filePath, gridHeaders)
	if err != nil {
		return err
	}

	for step := 0; step <= steps; step++ {
		values, err := res.Values.Row(step)
		if err != nil {
			stream.Close()
			return err
		}
		policy, err := res.Policy.Row(step)
		if err != nil {
			stream.Close()
			return err
		}

		for node := 0; node <= step; node++ {
			price, err := geom.Price(step, node)
			if err != nil {
				stream.Close()
				return err
			}

			record := []string{
				formatInt(step),
				formatInt(node),
				formatPrice(price),
				formatPrice(values[node]),
				formatBool(policy[node]),
			}
			if err := stream.WriteRecord(record); err != nil {
				stream.Close()
				return fmt.Errorf("write grid row step %d node %d: %w", step, node, err)
			}
		}
	}

	return stream.Close()
}
