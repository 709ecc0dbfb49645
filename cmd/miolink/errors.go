package main

import (
	"errors"

	"github.com/hakerfromrussia/miolink/internal/device"
)

// Command-level errors
var (
	// ErrNoDeviceFound indicates the scan ended without locating the band.
	ErrNoDeviceFound = errors.New("no matching device found")
)

// FormatUserError turns internal errors into actionable messages for the
// terminal. Unknown errors pass through unchanged.
func FormatUserError(err error) string {
	switch {
	case errors.Is(err, device.ErrAdapterUnavailable):
		return "no Bluetooth adapter available - check that Bluetooth is enabled and accessible"
	case errors.Is(err, device.ErrConnectFailed):
		return "could not connect to the device - verify the address and that the band is powered on"
	case errors.Is(err, ErrNoDeviceFound):
		return "no matching device found - make sure the band is advertising and the name filter is correct"
	default:
		return err.Error()
	}
}
