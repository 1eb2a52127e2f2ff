package exporter

import (
	"fmt"
	"strconv"
)

// formatPrice formats a price or option value for CSV output.
// The shortest representation that round-trips is used, so exported
// files carry full precision without trailing digit noise.
func formatPrice(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatTime formats a lattice time coordinate with fixed precision
func formatTime(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
