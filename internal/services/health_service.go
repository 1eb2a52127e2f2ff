package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"optlattice/internal/infrastructure"
	api "optlattice/pkg/contracts/api/v1"
)

// ClientCounter reports the number of connected websocket clients.
// The websocket hub implements it.
type ClientCounter interface {
	ClientCount() int
}

// HealthService reports service health and version information
type HealthService struct {
	version   string
	buildTime string
	outputDir string
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. The hub may be nil when the
// server runs without websocket support.
func NewHealthService(version, buildTime, outputDir string, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "health_service")

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("output_dir", outputDir))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		outputDir: outputDir,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck reports overall status together with per-component detail.
// The status degrades to "degraded" when a component check fails; the
// endpoint itself still answers 200 so operators can read the detail.
func (hs *HealthService) HealthCheck(ctx context.Context) *api.HealthResponse {
	hs.logger.DebugContext(ctx, "performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	components := map[string]string{
		"engine": "ok",
	}

	if hs.hub != nil {
		components["websocket"] = fmt.Sprintf("ok, %d clients", hs.hub.ClientCount())
	} else {
		components["websocket"] = "disabled"
	}

	components["output_dir"] = hs.checkOutputDir()

	status := "ok"
	for _, state := range components {
		if !strings.HasPrefix(state, "ok") && state != "disabled" {
			status = "degraded"
			break
		}
	}

	return &api.HealthResponse{
		Status:     status,
		Version:    hs.version,
		Uptime:     time.Since(hs.startTime).Round(time.Second).String(),
		Components: components,
	}
}

// LivenessCheck reports bare process liveness without component probes
func (hs *HealthService) LivenessCheck(ctx context.Context) *api.HealthResponse {
	return &api.HealthResponse{
		Status:  "alive",
		Version: hs.version,
		Uptime:  time.Since(hs.startTime).Round(time.Second).String(),
	}
}

// Version returns build and runtime information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}

	return result
}

// checkOutputDir verifies the export directory exists or can be created
func (hs *HealthService) checkOutputDir() string {
	if hs.outputDir == "" {
		return "disabled"
	}
	if err := os.MkdirAll(hs.outputDir, 0o755); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return "ok"
}
