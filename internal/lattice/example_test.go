package lattice_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"optlattice/internal/lattice"
)

// Example_priceAmericanPut prices the documented demo contract and reports
// whether early exercise is ever optimal.
func Example_priceAmericanPut() {
	contract := lattice.Contract{
		Spot:       100,
		Strike:     100,
		Maturity:   1.0,
		Rate:       0.05,
		Volatility: 0.25,
		Kind:       lattice.Put,
		Style:      lattice.American,
	}

	engine := lattice.NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))

	result, err := engine.Price(context.Background(), contract, 300)
	if err != nil {
		fmt.Println("pricing failed:", err)
		return
	}

	boundary, err := lattice.ExtractBoundary(result)
	if err != nil {
		fmt.Println("boundary extraction failed:", err)
		return
	}

	fmt.Printf("American put price: %.2f\n", result.Value)
	fmt.Printf("early exercise optimal: %v\n", len(boundary.ExercisePoints()) > 0)

	// Output:
	// American put price: 7.97
	// early exercise optimal: true
}

// ExampleBlackScholes compares the closed-form European value against the
// documented baseline.
func ExampleBlackScholes() {
	contract := lattice.Contract{
		Spot:       100,
		Strike:     100,
		Maturity:   1.0,
		Rate:       0.05,
		Volatility: 0.25,
		Kind:       lattice.Put,
		Style:      lattice.European,
	}

	value, err := lattice.BlackScholes(contract)
	if err != nil {
		fmt.Println("pricing failed:", err)
		return
	}

	fmt.Printf("Black-Scholes put: %.2f\n", value)

	// Output:
	// Black-Scholes put: 7.46
}
