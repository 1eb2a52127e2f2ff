// Package http contains the chi HTTP handlers for the pricing API.
//
// PricingHandler serves the value, chain and grid operations under
// /api/pricing; HealthHandler serves liveness and version endpoints.
// Handlers decode and validate through the service layer and render
// failures as RFC 7807 problem+json responses.
package http
