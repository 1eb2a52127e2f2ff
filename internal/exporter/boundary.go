package exporter

import (
	"fmt"

	"optlattice/internal/lattice"
)

// BoundaryExporter writes exercise boundaries as CSV
type BoundaryExporter struct {
	writer *CSVWriter
}

// NewBoundaryExporter creates a boundary exporter rooted at outputDir
func NewBoundaryExporter(outputDir string) *BoundaryExporter {
	return &BoundaryExporter{writer: NewCSVWriter(outputDir)}
}

// boundaryHeaders is the column layout of a boundary CSV file
var boundaryHeaders = []string{"step", "time", "price", "exercise"}

// Export writes one row per time step. Steps with no optimal exercise keep
// an empty price column so plotting tools treat them as gaps.
func (e *BoundaryExporter) Export(boundary *lattice.Boundary, filePath string) error {
	if boundary == nil {
		return fmt.Errorf("export boundary: nil boundary")
	}

	records := make([][]string, 0, len(boundary.Points))
	for _, p := range boundary.Points {
		price := ""
		if p.Exercise {
			price = formatPrice(p.Price)
		}
		records = append(records, []string{
			formatInt(p.Step),
			formatTime(p.Time),
			price,
			formatBool(p.Exercise),
		})
	}

	return e.writer.WriteSimpleCSV(filePath, boundaryHeaders, records)
}
