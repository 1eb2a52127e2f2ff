// Package services contains the business logic layer between the HTTP
// transport and the lattice pricing engine.
//
// PricingService validates incoming pricing requests, drives the engine,
// derives the European reference value and early exercise premium, and
// publishes completion events to the websocket hub. HealthService reports
// liveness, readiness and component status for the server.
//
// Services accept contexts on every operation and log through the injected
// slog logger so that trace IDs propagate from the transport layer.
package services
