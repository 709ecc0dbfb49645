package device

import (
	"context"
	"time"
)

// Advertisement is the subset of a BLE advertisement the locator needs.
type Advertisement interface {
	LocalName() string
	Addr() string
	RSSI() int
	Connectable() bool
}

// Scanner represents a BLE adapter capable of scanning for advertisements.
type Scanner interface {
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error
}

// Transport is the link-layer interface the link manager drives.
//
// Connect and Disconnect are the only synchronous calls; everything the
// peripheral does afterwards (link up, link loss, discovery results,
// characteristic notifications) arrives asynchronously on Events. The
// channel preserves per-session ordering.
type Transport interface {
	// Connect starts dialing the peripheral at address. It fails
	// immediately when no adapter is available or the address is empty;
	// the outcome of the dial itself is reported via Events as either
	// EventLinkUp or EventLinkDown.
	Connect(ctx context.Context, address string, opts *ConnectOptions) error

	// DiscoverServices starts a service discovery pass on the current
	// link. The result arrives as an EventServices event.
	DiscoverServices()

	// EnableNotifications subscribes to value notifications on the given
	// characteristic. Synchronous; a failed descriptor write is returned
	// to the caller.
	EnableNotifications(charUUID string) error

	// Disconnect tears down the current link. Safe to call when already
	// disconnected.
	Disconnect() error

	// Events returns the ordered stream of link events for this transport.
	Events() <-chan Event
}

// ConnectOptions bounds the dial path.
type ConnectOptions struct {
	// ConnectTimeout caps how long a single dial attempt may take before
	// it is reported as a link-down event. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// DefaultConnectTimeout is applied when ConnectOptions.ConnectTimeout is zero.
const DefaultConnectTimeout = 30 * time.Second
