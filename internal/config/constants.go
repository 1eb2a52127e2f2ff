package config

import "time"

// Application constants for the option pricing service
const (
	// Application Info
	AppName    = "optlattice"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces all environment variables (OPTLATTICE_*)
	EnvPrefix = "OPTLATTICE"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// Pricing Bounds
	DefaultLatticeSteps = 300
	MaxLatticeSteps     = 5000
	DefaultPricingLimit = 30 * time.Second

	// Output
	DefaultOutputDir = "results"
)
