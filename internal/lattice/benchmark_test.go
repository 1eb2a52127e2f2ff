package lattice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

// Benchmarks measure the backward-induction pass at the lattice sizes the
// service is expected to handle. The pass is O(n^2), so doubling the step
// count should roughly quadruple the time per operation.

func BenchmarkEngine_Price(b *testing.B) {
	engine := NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
	contract := validTestContract()
	ctx := context.Background()

	for _, steps := range []int{50, 100, 300, 1000} {
		b.Run(fmt.Sprintf("steps_%d", steps), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := engine.Price(ctx, contract, steps); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkExtractBoundary(b *testing.B) {
	engine := NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
	res, err := engine.Price(context.Background(), validTestContract(), 300)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ExtractBoundary(res); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBlackScholes(b *testing.B) {
	contract := validTestContract()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := BlackScholes(contract); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGeometry_Price(b *testing.B) {
	cal, err := Calibrate(validTestContract(), 300)
	if err != nil {
		b.Fatal(err)
	}
	geom := NewGeometry(100, cal)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := geom.Price(150, 75); err != nil {
			b.Fatal(err)
		}
	}
}
