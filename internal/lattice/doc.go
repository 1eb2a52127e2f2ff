// Package lattice prices American and European options on a recombining
// Cox-Ross-Rubinstein binomial lattice.
//
// The package models the underlying asset as a discrete lattice of price
// states and solves the optimal early-exercise problem by backward induction,
// producing the option value, the full value and policy grids, and the
// early-exercise boundary.
//
// # Core Components
//
//  1. Calibration: derives the lattice constants (up/down factors,
//     risk-neutral probability, per-step discount) from market parameters
//  2. Geometry: computes the underlying price at any lattice node on demand
//  3. Payoff: immediate exercise value for calls and puts
//  4. Engine: the backward-induction pass over the full lattice
//  5. Boundary extraction: post-processes the policy grid into the critical
//     exercise price per time step
//
// # Architecture
//
// The package keeps each concern in its own file:
//
//   - types.go: contract and calibration records, option enumerations
//   - errors.go: typed error values for validation, indexing, stability and
//     boundary failures
//   - calibration.go: CRR constant derivation and arbitrage checks
//   - geometry.go: node price computation via exponent arithmetic
//   - payoff.go: call/put payoff functions
//   - grid.go: compact triangular storage for value and policy grids
//   - engine.go: backward-induction orchestrator
//   - boundary.go: exercise boundary extraction and contiguity validation
//   - blackscholes.go: closed-form European baseline for comparison
//
// # Usage Example
//
//	contract := lattice.Contract{
//	    Spot:       100,
//	    Strike:     100,
//	    Maturity:   1.0,
//	    Rate:       0.05,
//	    Volatility: 0.25,
//	    Kind:       lattice.Put,
//	    Style:      lattice.American,
//	}
//
//	engine := lattice.NewEngine(slog.Default())
//	result, err := engine.Price(ctx, contract, 300)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	boundary, err := lattice.ExtractBoundary(result)
//	if err != nil {
//	    // The price in result.Value is still valid; only the
//	    // boundary is unavailable.
//	    log.Printf("boundary extraction failed: %v", err)
//	}
//
// # Mathematical Foundation
//
// With n steps over maturity T, the calibrated constants are:
//
//	dt = T / n
//	u  = exp(sigma * sqrt(dt))
//	d  = 1 / u
//	q  = (exp(r * dt) - d) / (u - d)
//
// The node price at step i, node j is S(i,j) = S0 * u^j * d^(i-j), and the
// value recurrence is:
//
//	V(n,j) = payoff(S(n,j))
//	V(i,j) = max(payoff(S(i,j)), discount * (q*V(i+1,j+1) + (1-q)*V(i+1,j)))
//
// where the outer max is dropped for European-style contracts. The model is
// arbitrage-free only when q lies strictly inside (0,1); calibration rejects
// parameter combinations that violate this rather than clamping.
//
// # Concurrency
//
// A single pricing invocation is sequential and CPU-bound and owns its grids
// exclusively. The Engine itself holds no mutable state, so one Engine may
// serve concurrent invocations for independent contracts.
//
// # References
//
//   - Cox, J.C., Ross, S.A. and Rubinstein, M. (1979). Option pricing:
//     a simplified approach. Journal of Financial Economics, 7(3).
//   - Hull, J.C. Options, Futures, and Other Derivatives (binomial trees,
//     American option valuation).
package lattice
