package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"optlattice/internal/config"
	apierrors "optlattice/internal/errors"
	"optlattice/internal/infrastructure"
	"optlattice/internal/lattice"
	api "optlattice/pkg/contracts/api/v1"
	"optlattice/pkg/contracts/events"
)

// EventBroadcaster publishes pricing lifecycle events to connected
// websocket clients. The hub implements it; tests substitute a recorder.
type EventBroadcaster interface {
	BroadcastPricingComplete(data interface{}, traceID string)
	BroadcastPricingError(code, message, traceID string)
	BroadcastChainProgress(done, total int, traceID string)
}

// PricingService validates pricing requests and drives the lattice engine.
// A single instance is safe for concurrent use.
type PricingService struct {
	engine      *lattice.Engine
	cfg         config.PricingConfig
	validate    *validator.Validate
	broadcaster EventBroadcaster
	metrics     *infrastructure.PricingMetrics
	logger      *slog.Logger
}

// NewPricingService creates a pricing service with injected dependencies.
// The broadcaster and metrics may be nil; events and measurements are then
// skipped.
func NewPricingService(cfg *config.Config, broadcaster EventBroadcaster, metrics *infrastructure.PricingMetrics, logger *slog.Logger) *PricingService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "pricing_service")

	v := validator.New()
	// Report validation failures against JSON field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	engine := lattice.NewEngine(logger)
	engine.SetTimeout(cfg.Pricing.Timeout)

	logger.Info("PricingService initialized",
		slog.Int("default_steps", cfg.Pricing.DefaultSteps),
		slog.Int("max_steps", cfg.Pricing.MaxSteps),
		slog.Int("max_grid_steps", cfg.Pricing.MaxGridSteps),
		slog.Duration("timeout", cfg.Pricing.Timeout))

	return &PricingService{
		engine:      engine,
		cfg:         cfg.Pricing,
		validate:    v,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger,
	}
}

// Engine exposes the underlying lattice engine for callers that need
// direct access, such as exporters working from a raw result.
func (s *PricingService) Engine() *lattice.Engine {
	return s.engine
}

// Value prices a single contract. American contracts are also priced as
// their European counterpart so the response carries the early exercise
// premium alongside the closed-form Black-Scholes reference.
func (s *PricingService) Value(ctx context.Context, req *api.ValueRequest) (*api.ValueResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	steps, err := s.resolveSteps(req.Steps, s.cfg.MaxSteps)
	if err != nil {
		return nil, err
	}

	contract, err := s.buildContract(req.Spot, req.Strike, req.Maturity, req.Rate, req.Volatility, req.Kind, req.Style)
	if err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	traceID := infrastructure.GetTraceID(ctx)

	s.logger.InfoContext(ctx, "value request accepted",
		slog.String("request_id", requestID),
		slog.String("kind", contract.Kind.String()),
		slog.String("style", contract.Style.String()),
		slog.Int("steps", steps),
		slog.Bool("with_boundary", req.WithBoundary))

	infrastructure.RecordActivePricingChange(ctx, s.metrics, 1)
	defer infrastructure.RecordActivePricingChange(ctx, s.metrics, -1)

	start := time.Now()
	res, err := s.engine.Price(ctx, contract, steps)
	infrastructure.RecordPricingMetrics(ctx, s.metrics, contract.Kind.String(), contract.Style.String(), steps, time.Since(start), err)
	if err != nil {
		s.broadcastError(err, traceID)
		return nil, err
	}

	resp := &api.ValueResponse{
		RequestID:   requestID,
		Spot:        contract.Spot,
		Strike:      contract.Strike,
		Maturity:    contract.Maturity,
		Rate:        contract.Rate,
		Volatility:  contract.Volatility,
		Kind:        contract.Kind.String(),
		Style:       contract.Style.String(),
		Steps:       steps,
		Value:       res.Value,
		Calibration: toAPICalibration(res.Calibration),
		ElapsedMs:   res.Elapsed.Seconds() * 1000,
	}

	if contract.Style == lattice.American {
		euro := contract
		euro.Style = lattice.European
		eres, err := s.engine.Price(ctx, euro, steps)
		if err != nil {
			s.broadcastError(err, traceID)
			return nil, fmt.Errorf("price european reference: %w", err)
		}
		resp.EuropeanValue = eres.Value
		resp.EarlyExercisePremium = res.Value - eres.Value
	} else {
		resp.EuropeanValue = res.Value
	}

	if bs, err := lattice.BlackScholes(contract); err == nil {
		resp.BlackScholes = bs
	}

	if req.WithBoundary && contract.Style == lattice.American {
		boundary, err := lattice.ExtractBoundary(res)
		if err != nil {
			s.broadcastError(err, traceID)
			return nil, err
		}
		if s.metrics != nil && s.metrics.BoundaryExtractions != nil {
			s.metrics.BoundaryExtractions.Add(ctx, 1)
		}
		resp.Boundary = toAPIBoundary(boundary)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastPricingComplete(events.PricingCompleteData{
			RequestID: requestID,
			Kind:      resp.Kind,
			Style:     resp.Style,
			Steps:     steps,
			Value:     resp.Value,
			ElapsedMs: resp.ElapsedMs,
		}, traceID)
	}

	return resp, nil
}

// Chain prices one contract per strike against shared market parameters.
// Strikes are priced concurrently, bounded by the configured worker count,
// and progress events are broadcast as entries complete. A bad strike
// fails only its own entry; context cancellation aborts the whole chain.
func (s *PricingService) Chain(ctx context.Context, req *api.ChainRequest) (*api.ChainResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	steps, err := s.resolveSteps(req.Steps, s.cfg.MaxSteps)
	if err != nil {
		return nil, err
	}

	kind, err := lattice.ParseOptionKind(req.Kind)
	if err != nil {
		return nil, err
	}
	style, err := s.resolveStyle(req.Style)
	if err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	traceID := infrastructure.GetTraceID(ctx)
	total := len(req.Strikes)

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	s.logger.InfoContext(ctx, "chain request accepted",
		slog.String("request_id", requestID),
		slog.String("kind", kind.String()),
		slog.String("style", style.String()),
		slog.Int("steps", steps),
		slog.Int("strikes", total),
		slog.Int("workers", workers))

	infrastructure.RecordActivePricingChange(ctx, s.metrics, 1)
	defer infrastructure.RecordActivePricingChange(ctx, s.metrics, -1)

	start := time.Now()
	entries := make([]api.ChainEntry, total)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, strike := range req.Strikes {
		g.Go(func() error {
			entry, err := s.priceChainEntry(gctx, lattice.Contract{
				Spot:       req.Spot,
				Strike:     strike,
				Maturity:   req.Maturity,
				Rate:       req.Rate,
				Volatility: req.Volatility,
				Kind:       kind,
				Style:      style,
			}, steps)
			if err != nil {
				return err
			}
			entries[i] = entry

			completed := int(done.Add(1))
			if s.broadcaster != nil {
				s.broadcaster.BroadcastChainProgress(completed, total, traceID)
			}
			return nil
		})
	}

	err = g.Wait()
	infrastructure.RecordPricingMetrics(ctx, s.metrics, kind.String(), style.String(), steps, time.Since(start), err)
	if err != nil {
		s.broadcastError(err, traceID)
		return nil, fmt.Errorf("price chain: %w", err)
	}

	elapsed := time.Since(start)
	resp := &api.ChainResponse{
		RequestID: requestID,
		Kind:      kind.String(),
		Style:     style.String(),
		Steps:     steps,
		Entries:   entries,
		ElapsedMs: elapsed.Seconds() * 1000,
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastPricingComplete(events.PricingCompleteData{
			RequestID: requestID,
			Kind:      resp.Kind,
			Style:     resp.Style,
			Steps:     steps,
			ElapsedMs: resp.ElapsedMs,
		}, traceID)
	}

	return resp, nil
}

// priceChainEntry prices one strike of a chain. Pricing failures are
// folded into the entry; only context failures propagate as errors.
func (s *PricingService) priceChainEntry(ctx context.Context, contract lattice.Contract, steps int) (api.ChainEntry, error) {
	entry := api.ChainEntry{Strike: contract.Strike}

	res, err := s.engine.Price(ctx, contract, steps)
	if err != nil {
		if ctx.Err() != nil {
			return entry, ctx.Err()
		}
		entry.Error = err.Error()
		return entry, nil
	}
	entry.Value = res.Value

	if contract.Style == lattice.American {
		euro := contract
		euro.Style = lattice.European
		eres, err := s.engine.Price(ctx, euro, steps)
		if err != nil {
			if ctx.Err() != nil {
				return entry, ctx.Err()
			}
			entry.Error = err.Error()
			return entry, nil
		}
		entry.EuropeanValue = eres.Value
		entry.EarlyExercisePremium = res.Value - eres.Value
	} else {
		entry.EuropeanValue = res.Value
	}

	if bs, err := lattice.BlackScholes(contract); err == nil {
		entry.BlackScholes = bs
	}

	if s.metrics != nil && s.metrics.ChainContractsPriced != nil {
		s.metrics.ChainContractsPriced.Add(ctx, 1)
	}

	return entry, nil
}

// Grid prices a contract and returns the full value and policy grids
// together with the node prices and step times. Grid responses are
// quadratic in the step count, so the step cap is the tighter MaxGridSteps.
func (s *PricingService) Grid(ctx context.Context, req *api.GridRequest) (*api.GridResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	steps, err := s.resolveSteps(req.Steps, s.cfg.MaxGridSteps)
	if err != nil {
		return nil, err
	}

	contract, err := s.buildContract(req.Spot, req.Strike, req.Maturity, req.Rate, req.Volatility, req.Kind, req.Style)
	if err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	traceID := infrastructure.GetTraceID(ctx)

	s.logger.InfoContext(ctx, "grid request accepted",
		slog.String("request_id", requestID),
		slog.String("kind", contract.Kind.String()),
		slog.String("style", contract.Style.String()),
		slog.Int("steps", steps))

	infrastructure.RecordActivePricingChange(ctx, s.metrics, 1)
	defer infrastructure.RecordActivePricingChange(ctx, s.metrics, -1)

	start := time.Now()
	res, err := s.engine.Price(ctx, contract, steps)
	infrastructure.RecordPricingMetrics(ctx, s.metrics, contract.Kind.String(), contract.Style.String(), steps, time.Since(start), err)
	if err != nil {
		s.broadcastError(err, traceID)
		return nil, err
	}

	geom := lattice.NewGeometry(contract.Spot, res.Calibration)
	times := make([]float64, steps+1)
	prices := make([][]float64, steps+1)
	values := make([][]float64, steps+1)
	policy := make([][]bool, steps+1)

	for step := 0; step <= steps; step++ {
		times[step] = float64(step) * res.Calibration.Dt

		row := make([]float64, step+1)
		for node := 0; node <= step; node++ {
			p, err := geom.Price(step, node)
			if err != nil {
				return nil, err
			}
			row[node] = p
		}
		prices[step] = row

		vrow, err := res.Values.Row(step)
		if err != nil {
			return nil, err
		}
		values[step] = vrow

		prow, err := res.Policy.Row(step)
		if err != nil {
			return nil, err
		}
		policy[step] = prow
	}

	resp := &api.GridResponse{
		RequestID:   requestID,
		Steps:       steps,
		Value:       res.Value,
		Calibration: toAPICalibration(res.Calibration),
		Times:       times,
		Prices:      prices,
		Values:      values,
		Policy:      policy,
		ElapsedMs:   res.Elapsed.Seconds() * 1000,
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastPricingComplete(events.PricingCompleteData{
			RequestID: requestID,
			Kind:      contract.Kind.String(),
			Style:     contract.Style.String(),
			Steps:     steps,
			Value:     res.Value,
			ElapsedMs: resp.ElapsedMs,
		}, traceID)
	}

	return resp, nil
}

// validateRequest runs struct tag validation and converts failures into
// the API error shape
func (s *PricingService) validateRequest(req interface{}) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apierrors.ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apierrors.ValidationError{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
		return apierrors.NewValidationErrors(fields)
	}

	return apierrors.InvalidRequestWithError(err)
}

// validationMessage renders a field error as a human-readable message
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// resolveSteps applies the configured default and enforces the cap
func (s *PricingService) resolveSteps(requested, max int) (int, error) {
	if requested == 0 {
		steps := s.cfg.DefaultSteps
		if steps > max {
			steps = max
		}
		return steps, nil
	}
	if requested > max {
		return 0, apierrors.ErrValidation("steps",
			fmt.Sprintf("step count %d exceeds maximum %d", requested, max))
	}
	return requested, nil
}

// resolveStyle parses the exercise style, defaulting to American
func (s *PricingService) resolveStyle(style string) (lattice.ExerciseStyle, error) {
	if style == "" {
		return lattice.American, nil
	}
	return lattice.ParseExerciseStyle(style)
}

func (s *PricingService) buildContract(spot, strike, maturity, rate, volatility float64, kind, style string) (lattice.Contract, error) {
	k, err := lattice.ParseOptionKind(kind)
	if err != nil {
		return lattice.Contract{}, err
	}
	st, err := s.resolveStyle(style)
	if err != nil {
		return lattice.Contract{}, err
	}
	return lattice.Contract{
		Spot:       spot,
		Strike:     strike,
		Maturity:   maturity,
		Rate:       rate,
		Volatility: volatility,
		Kind:       k,
		Style:      st,
	}, nil
}

// broadcastError classifies the failure and publishes a pricing:error event
func (s *PricingService) broadcastError(err error, traceID string) {
	if s.broadcaster == nil {
		return
	}

	code := "INTERNAL_SERVER_ERROR"
	var verr lattice.ValidationError
	var ierr lattice.InstabilityError
	switch {
	case errors.As(err, &verr):
		code = "VALIDATION_FAILED"
	case errors.As(err, &ierr):
		code = "NUMERICAL_INSTABILITY"
	case errors.Is(err, context.DeadlineExceeded):
		code = "PRICING_TIMEOUT"
	case errors.Is(err, context.Canceled):
		code = "PRICING_CANCELLED"
	}

	s.broadcaster.BroadcastPricingError(code, err.Error(), traceID)
}

func toAPICalibration(cal lattice.Calibration) api.Calibration {
	return api.Calibration{
		StepSize:  cal.Dt,
		Up:        cal.Up,
		Down:      cal.Down,
		UpProb:    cal.UpProb,
		Discount:  cal.Discount,
		StepCount: cal.Steps,
	}
}

func toAPIBoundary(b *lattice.Boundary) []api.BoundaryPoint {
	points := make([]api.BoundaryPoint, 0, len(b.Points))
	for _, p := range b.Points {
		ap := api.BoundaryPoint{
			Step:     p.Step,
			Time:     p.Time,
			Exercise: p.Exercise,
		}
		if p.Exercise {
			ap.Price = p.Price
		}
		points = append(points, ap)
	}
	return points
}
