// Package locator discovers the sensor band among nearby BLE peripherals.
package locator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"

	"github.com/hakerfromrussia/miolink/internal/device"
	"github.com/hakerfromrussia/miolink/internal/ringchan"
)

// DeviceEventType marks if the device was newly discovered or updated.
type DeviceEventType int

const (
	EventNew DeviceEventType = iota
	EventUpdated
)

// DeviceEvent describes one advertisement observation.
type DeviceEvent struct {
	Type    DeviceEventType
	Name    string
	Address string
	RSSI    int
}

// deviceInfo is the last observed advertisement data for one address.
type deviceInfo struct {
	name string
	rssi int
}

// Locator scans for peripherals and yields the address of the first one
// whose advertised name contains the configured pattern.
type Locator struct {
	scanner device.Scanner
	seen    *hashmap.Map[string, deviceInfo]
	events  *ringchan.RingChannel[DeviceEvent]
	logger  *logrus.Logger
}

// New creates a locator on top of the given scanner.
func New(scanner device.Scanner, logger *logrus.Logger) *Locator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Locator{
		scanner: scanner,
		events:  ringchan.New[DeviceEvent](100),
		logger:  logger,
	}
}

// Find scans until a peripheral whose advertised local name contains
// namePattern is observed, then stops scanning and returns its address.
// There is no scan timeout of its own: with no match the scan continues
// until ctx is cancelled, in which case the ctx error is returned.
func (l *Locator) Find(ctx context.Context, namePattern string) (string, error) {
	l.seen = hashmap.New[string, deviceInfo]()

	l.logger.WithField("pattern", namePattern).Info("Scanning for sensor band")

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	found := make(chan string, 1)
	handler := func(adv device.Advertisement) {
		l.observe(adv)
		if strings.Contains(adv.LocalName(), namePattern) {
			select {
			case found <- adv.Addr():
				cancel()
			default:
			}
		}
	}

	err := l.scanner.Scan(scanCtx, false, handler)

	select {
	case addr := <-found:
		l.logger.WithField("address", addr).Info("Sensor band located")
		return addr, nil
	default:
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("scan failed: %w", err)
	}
	return "", ctx.Err()
}

// Events returns a read-only stream of discovery events, overwrite-oldest.
func (l *Locator) Events() <-chan DeviceEvent {
	return l.events.C()
}

// observe updates the seen map and emits a discovery event.
func (l *Locator) observe(adv device.Advertisement) {
	addr := adv.Addr()
	info := deviceInfo{name: adv.LocalName(), rssi: adv.RSSI()}

	_, existing := l.seen.Get(addr)
	l.seen.Set(addr, info)

	event := DeviceEvent{
		Name:    info.name,
		Address: addr,
		RSSI:    info.rssi,
	}
	if existing {
		event.Type = EventUpdated
	} else {
		l.logger.WithFields(logrus.Fields{
			"device":  info.name,
			"address": addr,
			"rssi":    info.rssi,
		}).Info("Discovered new device")
		event.Type = EventNew
	}

	l.events.Send(event)
}
