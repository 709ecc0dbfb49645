package goble

import (
	"fmt"
	"sync"

	"github.com/go-ble/ble"

	"github.com/hakerfromrussia/miolink/internal/device"
)

// The HCI socket can only be opened once per process, so the adapter is
// shared between the scanner and the transport.
var (
	adapterOnce sync.Once
	adapterDev  ble.Device
	adapterErr  error
)

// openAdapter opens the local BLE adapter on first use and registers it as
// the go-ble default device. Subsequent calls return the cached handle.
func openAdapter() (ble.Device, error) {
	adapterOnce.Do(func() {
		adapterDev, adapterErr = DeviceFactory()
		if adapterErr != nil {
			// Any failure to open the radio means there is no adapter to work with.
			adapterErr = fmt.Errorf("%w: %v", device.ErrAdapterUnavailable, adapterErr)
			return
		}
		ble.SetDefaultDevice(adapterDev)
	})
	return adapterDev, adapterErr
}
