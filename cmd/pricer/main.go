package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"optlattice/internal/exporter"
	"optlattice/internal/lattice"
)

// pricingReport is the full result emitted by -json
type pricingReport struct {
	Contract             lattice.Contract    `json:"contract"`
	Calibration          lattice.Calibration `json:"calibration"`
	Value                float64             `json:"value"`
	EuropeanValue        float64             `json:"european_value"`
	EarlyExercisePremium float64             `json:"early_exercise_premium"`
	BlackScholes         float64             `json:"black_scholes,omitempty"`
	Boundary             *lattice.Boundary   `json:"boundary,omitempty"`
	ElapsedMs            float64             `json:"elapsed_ms"`
}

func main() {
	spot := flag.Float64("spot", 100, "current underlying price")
	strike := flag.Float64("strike", 100, "exercise price")
	maturity := flag.Float64("maturity", 1, "time to expiry in years")
	rate := flag.Float64("rate", 0.05, "continuously compounded risk-free rate")
	vol := flag.Float64("vol", 0.25, "annualized volatility")
	steps := flag.Int("steps", 300, "number of lattice time steps")
	kindFlag := flag.String("kind", "put", "option kind (call or put)")
	styleFlag := flag.String("style", "american", "exercise style (american or european)")
	boundaryCSV := flag.String("boundary-csv", "", "write the exercise boundary to this CSV file")
	gridCSV := flag.String("grid-csv", "", "write the value grid to this CSV file")
	xlsxPath := flag.String("xlsx", "", "write a full workbook (summary, boundary, grid) to this Excel file")
	jsonOut := flag.Bool("json", false, "emit the full result as JSON instead of the summary table")
	quiet := flag.Bool("quiet", false, "suppress log output")
	flag.Parse()

	logOutput := io.Writer(os.Stderr)
	if *quiet {
		logOutput = io.Discard
	}
	logger := slog.New(slog.NewTextHandler(logOutput, nil))

	kind, err := lattice.ParseOptionKind(*kindFlag)
	if err != nil {
		logger.Error("Invalid option kind", "error", err)
		os.Exit(1)
	}
	style, err := lattice.ParseExerciseStyle(*styleFlag)
	if err != nil {
		logger.Error("Invalid exercise style", "error", err)
		os.Exit(1)
	}

	contract := lattice.Contract{
		Spot:       *spot,
		Strike:     *strike,
		Maturity:   *maturity,
		Rate:       *rate,
		Volatility: *vol,
		Kind:       kind,
		Style:      style,
	}
	if err := contract.Validate(); err != nil {
		logger.Error("Invalid contract", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	engine := lattice.NewEngine(logger)

	res, err := engine.Price(ctx, contract, *steps)
	if err != nil {
		logger.Error("Pricing failed", "error", err)
		os.Exit(1)
	}

	report := pricingReport{
		Contract:    contract,
		Calibration: res.Calibration,
		Value:       res.Value,
		ElapsedMs:   res.Elapsed.Seconds() * 1000,
	}

	if style == lattice.American {
		euro := contract
		euro.Style = lattice.European
		eres, err := engine.Price(ctx, euro, *steps)
		if err != nil {
			logger.Error("European reference pricing failed", "error", err)
			os.Exit(1)
		}
		report.EuropeanValue = eres.Value
		report.EarlyExercisePremium = res.Value - eres.Value
	} else {
		report.EuropeanValue = res.Value
	}

	if bs, err := lattice.BlackScholes(contract); err == nil {
		report.BlackScholes = bs
	}

	var boundary *lattice.Boundary
	if style == lattice.American {
		boundary, err = lattice.ExtractBoundary(res)
		if err != nil {
			logger.Error("Boundary extraction failed", "error", err)
			os.Exit(1)
		}
		report.Boundary = boundary
	}

	if *boundaryCSV != "" {
		if boundary == nil {
			logger.Error("Boundary export requires an American contract")
			os.Exit(1)
		}
		if err := exporter.NewBoundaryExporter("").Export(boundary, *boundaryCSV); err != nil {
			logger.Error("Failed to write boundary CSV", "error", err, "path", *boundaryCSV)
			os.Exit(1)
		}
		logger.Info("Boundary CSV written", "path", *boundaryCSV)
	}

	if *gridCSV != "" {
		if err := exporter.NewGridExporter("").Export(res, *gridCSV); err != nil {
			logger.Error("Failed to write grid CSV", "error", err, "path", *gridCSV)
			os.Exit(1)
		}
		logger.Info("Grid CSV written", "path", *gridCSV)
	}

	if *xlsxPath != "" {
		if err := exporter.NewWorkbookExporter("").Export(res, boundary, *xlsxPath); err != nil {
			logger.Error("Failed to write workbook", "error", err, "path", *xlsxPath)
			os.Exit(1)
		}
		logger.Info("Workbook written", "path", *xlsxPath)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Error("Failed to encode result", "error", err)
			os.Exit(1)
		}
		return
	}

	printReport(report)
}

func printReport(r pricingReport) {
	fmt.Printf("=== %s %s, %d steps ===\n",
		r.Contract.Style, r.Contract.Kind, r.Calibration.Steps)
	fmt.Printf("Spot %.4f  Strike %.4f  Maturity %.4f  Rate %.4f  Vol %.4f\n",
		r.Contract.Spot, r.Contract.Strike, r.Contract.Maturity,
		r.Contract.Rate, r.Contract.Volatility)
	fmt.Println()

	fmt.Printf("Value:                  %.6f\n", r.Value)
	fmt.Printf("European (lattice):     %.6f\n", r.EuropeanValue)
	if r.BlackScholes != 0 {
		fmt.Printf("Black-Scholes (closed): %.6f\n", r.BlackScholes)
	}
	if r.Contract.Style == lattice.American {
		fmt.Printf("Early exercise premium: %.6f\n", r.EarlyExercisePremium)
	}
	fmt.Printf("Computed in:            %.2f ms\n", r.ElapsedMs)
	fmt.Println()

	fmt.Println("=== CALIBRATION ===")
	fmt.Printf("dt       = %.8f\n", r.Calibration.Dt)
	fmt.Printf("up       = %.8f\n", r.Calibration.Up)
	fmt.Printf("down     = %.8f\n", r.Calibration.Down)
	fmt.Printf("up prob  = %.8f\n", r.Calibration.UpProb)
	fmt.Printf("discount = %.8f\n", r.Calibration.Discount)

	if r.Boundary == nil {
		return
	}

	points := r.Boundary.ExercisePoints()
	if len(points) == 0 {
		fmt.Println("\nNo early exercise at any step.")
		return
	}

	fmt.Println("\n=== EXERCISE BOUNDARY ===")
	fmt.Println("  Step |     Time | Critical Price")
	fmt.Println("-------|----------|---------------")
	for _, p := range points {
		fmt.Printf("%6d | %8.4f | %14.4f\n", p.Step, p.Time, p.Price)
	}
}
