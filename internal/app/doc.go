// Package app wires the pricing server together and manages its lifecycle.
//
// NewApplication loads configuration, initializes logging and OpenTelemetry,
// starts the websocket hub, constructs the pricing and health services, and
// mounts the chi router with the full middleware chain. Run blocks until an
// interrupt signal arrives and then shuts the server down gracefully.
//
// All initialization errors are returned to the caller; the package never
// calls os.Exit itself.
package app
