package goble

import (
	"context"

	"github.com/go-ble/ble"

	"github.com/hakerfromrussia/miolink/internal/device"
)

// bleAdvertisement adapts ble.Advertisement to the device.Advertisement
// interface consumed by the locator.
type bleAdvertisement struct {
	adv ble.Advertisement
}

func (a *bleAdvertisement) LocalName() string { return a.adv.LocalName() }
func (a *bleAdvertisement) Addr() string      { return a.adv.Addr().String() }
func (a *bleAdvertisement) RSSI() int         { return a.adv.RSSI() }
func (a *bleAdvertisement) Connectable() bool { return a.adv.Connectable() }

// bleScanner wraps ble.Device to implement the device.Scanner interface.
type bleScanner struct {
	dev ble.Device
}

// Scan wraps the raw ble.Device.Scan, converting each ble.Advertisement to
// a device.Advertisement before handing it to the caller.
func (s *bleScanner) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	bleHandler := func(adv ble.Advertisement) {
		handler(&bleAdvertisement{adv: adv})
	}
	if err := s.dev.Scan(ctx, allowDup, bleHandler); err != nil {
		return device.NormalizeError(err)
	}
	return nil
}

// NewScanner creates a device.Scanner backed by the local BLE adapter.
func NewScanner() (device.Scanner, error) {
	dev, err := openAdapter()
	if err != nil {
		return nil, err
	}
	return &bleScanner{dev: dev}, nil
}
