// Package debug provides global debug logging flags
package debug

import "github.com/teslashibe/go-depthanchor/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Scan controls whether every scan-grid sample is logged.
// A sweep visits dozens of points per frame, so this is off unless
// --debug-scan is given.
var Scan bool

// Log logs a message only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Debug(msg, args...)
	}
}

// ScanLog logs a message only if scan debug mode is enabled
func ScanLog(msg string, args ...any) {
	if Scan {
		log.Debug(msg, args...)
	}
}
