// Package events contains event contract definitions for WebSocket
// communication with pricing clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Pricing messages
	MessageTypePricingComplete MessageType = "pricing:complete"
	MessageTypePricingError    MessageType = "pricing:error"
	MessageTypeChainProgress   MessageType = "chain:progress"

	// System messages
	MessageTypeSystemStatus MessageType = "system:status"

	// Connection messages
	MessageTypeConnect    MessageType = "connection"
	MessageTypeDisconnect MessageType = "disconnect"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// PricingCompleteData is the payload of a pricing:complete event
type PricingCompleteData struct {
	RequestID string  `json:"request_id"`
	Kind      string  `json:"kind"`
	Style     string  `json:"style"`
	Steps     int     `json:"steps"`
	Value     float64 `json:"value"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

// PricingErrorData is the payload of a pricing:error event
type PricingErrorData struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// ChainProgressData is the payload of a chain:progress event
type ChainProgressData struct {
	RequestID string `json:"request_id,omitempty"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
}

// SystemStatusData is the payload of a system:status event
type SystemStatusData struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
