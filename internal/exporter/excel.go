package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"optlattice/internal/lattice"
)

// Sheet names inside an exported workbook
const (
	sheetSummary   = "Summary"
	sheetBoundary  = "Boundary"
	sheetValueGrid = "ValueGrid"
)

// WorkbookExporter writes a pricing result as an xlsx workbook
type WorkbookExporter struct {
	outputDir string
}

// NewWorkbookExporter creates a workbook exporter rooted at outputDir
func NewWorkbookExporter(outputDir string) *WorkbookExporter {
	return &WorkbookExporter{outputDir: outputDir}
}

// Export writes the workbook. The boundary argument may be nil, in which
// case the Boundary sheet is omitted.
func (e *WorkbookExporter) Export(res *lattice.Result, boundary *lattice.Boundary, filePath string) error {
	if res == nil || res.Values == nil || res.Policy == nil {
		return fmt.Errorf("export workbook: result has no grids")
	}

	fullPath := filePath
	if !filepath.IsAbs(fullPath) && e.outputDir != "" {
		fullPath = filepath.Join(e.outputDir, fullPath)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetSummary)
	if err := e.writeSummary(f, res); err != nil {
		return err
	}

	if boundary != nil {
		if _, err := f.NewSheet(sheetBoundary); err != nil {
			return fmt.Errorf("create boundary sheet: %w", err)
		}
		if err := e.writeBoundary(f, boundary); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(sheetValueGrid); err != nil {
		return fmt.Errorf("create grid sheet: %w", err)
	}
	if err := e.writeGrid(f, res); err != nil {
		return err
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (e *WorkbookExporter) writeSummary(f *excelize.File, res *lattice.Result) error {
	c := res.Contract
	cal := res.Calibration

	rows := [][2]interface{}{
		{"Kind", c.Kind.String()},
		{"Style", c.Style.String()},
		{"Spot", c.Spot},
		{"Strike", c.Strike},
		{"Maturity", c.Maturity},
		{"Rate", c.Rate},
		{"Volatility", c.Volatility},
		{"Steps", cal.Steps},
		{"Value", res.Value},
		{"Step Size", cal.Dt},
		{"Up Factor", cal.Up},
		{"Down Factor", cal.Down},
		{"Up Probability", cal.UpProb},
		{"Discount", cal.Discount},
		{"Elapsed", res.Elapsed.String()},
	}

	// The closed-form European value gives the reader a reference column
	// without re-running the lattice.
	if bs, err := lattice.BlackScholes(c); err == nil {
		rows = append(rows, [2]interface{}{"Black-Scholes (European)", bs})
	}

	for i, row := range rows {
		keyCell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		valCell, err := excelize.CoordinatesToCellName(2, i+1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetSummary, keyCell, row[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetSummary, valCell, row[1]); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheetSummary, "A", "B", 24)
}

func (e *WorkbookExporter) writeBoundary(f *excelize.File, boundary *lattice.Boundary) error {
	headers := []string{"Step", "Time", "Price", "Exercise"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetBoundary, cell, h); err != nil {
			return err
		}
	}

	for i, p := range boundary.Points {
		row := i + 2
		values := []interface{}{p.Step, p.Time, nil, p.Exercise}
		if p.Exercise {
			values[2] = p.Price
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetBoundary, cell, v); err != nil {
				return err
			}
		}
	}

	return e.freezeHeader(f, sheetBoundary)
}

func (e *WorkbookExporter) writeGrid(f *excelize.File, res *lattice.Result) error {
	headers := []string{"Step", "Node", "Price", "Value", "Exercise"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetValueGrid, cell, h); err != nil {
			return err
		}
	}

	steps := res.Values.Steps()
	geom := lattice.NewGeometry(res.Contract.Spot, res.Calibration)

	row := 2
	for step := 0; step <= steps; step++ {
		values, err := res.Values.Row(step)
		if err != nil {
			return err
		}
		policy, err := res.Policy.Row(step)
		if err != nil {
			return err
		}

		for node := 0; node <= step; node++ {
			price, err := geom.Price(step, node)
			if err != nil {
				return err
			}

			cells := []interface{}{step, node, price, values[node], policy[node]}
			for col, v := range cells {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheetValueGrid, cell, v); err != nil {
					return err
				}
			}
			row++
		}
	}

	return e.freezeHeader(f, sheetValueGrid)
}

func (e *WorkbookExporter) freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
