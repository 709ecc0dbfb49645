package device_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hakerfromrussia/miolink/internal/attrdb"
	"github.com/hakerfromrussia/miolink/internal/device"
)

func TestCatalogPreservesDiscoveryOrder(t *testing.T) {
	catalog := device.NewCatalog()
	catalog.AddService("0000180a-0000-1000-8000-00805f9b34fb")
	catalog.AddService("0000fe40-cc7a-482a-984a-7f2ed5b3e58f")
	catalog.AddService("0000180d-0000-1000-8000-00805f9b34fb")

	services := catalog.Services()
	require.Len(t, services, 3)
	require.Equal(t, "Device Information Service", services[0].Name())
	require.Equal(t, "Band Custom Service", services[1].Name())
	require.Equal(t, "Heart Rate Service", services[2].Name())
}

func TestCatalogResolvesNames(t *testing.T) {
	catalog := device.NewCatalog()
	svc := catalog.AddService("12345678-0000-0000-0000-000000000000")
	char := svc.AddCharacteristic(attrdb.SensorStreamCharacteristic, 0x0021)

	require.Equal(t, "Unknown Service", svc.Name())
	require.Equal(t, "Sensor Stream", char.Name())
	require.Equal(t, uint16(0x0021), char.Handle())
}

func TestCatalogResolvesNamesFromWireFormat(t *testing.T) {
	// Discovery feeds the catalog ble.UUID.String() values: dashless for
	// 128-bit UUIDs, bare hex for 16-bit assigned numbers.
	catalog := device.NewCatalog()
	svc := catalog.AddService("0000180d00001000800000805f9b34fb")
	hr := svc.AddCharacteristic("2a37", 0x0010)
	stream := svc.AddCharacteristic("436861724d74726b0201526f64696f6e", 0x0021)

	require.Equal(t, "Heart Rate Service", svc.Name())
	require.Equal(t, "MIO Measurement", hr.Name())
	require.Equal(t, "Sensor Stream", stream.Name())
}

func TestCatalogDedupsByNormalizedUUID(t *testing.T) {
	catalog := device.NewCatalog()
	first := catalog.AddService("0000180D-0000-1000-8000-00805F9B34FB")
	second := catalog.AddService("0000180d-0000-1000-8000-00805f9b34fb")

	require.Same(t, first, second)
	require.Equal(t, 1, catalog.Len())

	c1 := first.AddCharacteristic(attrdb.MioMeasurement, 0x0010)
	c2 := first.AddCharacteristic("00002A37-0000-1000-8000-00805F9B34FB", 0x0099)
	require.Same(t, c1, c2)
	require.Equal(t, uint16(0x0010), c2.Handle(), "first registration wins")
}

func TestFindCharacteristicAcrossServices(t *testing.T) {
	catalog := device.NewCatalog()
	catalog.AddService("0000180d-0000-1000-8000-00805f9b34fb").
		AddCharacteristic(attrdb.MioMeasurement, 0x0010)
	catalog.AddService("0000fe40-cc7a-482a-984a-7f2ed5b3e58f").
		AddCharacteristic(attrdb.SensorStreamCharacteristic, 0x0021)

	char, ok := catalog.FindCharacteristic("43686172-4D74-726B-0201-526F64696F6E")
	require.True(t, ok)
	require.Equal(t, "Sensor Stream", char.Name())

	_, ok = catalog.FindCharacteristic(attrdb.OpenThreshold)
	require.False(t, ok)
}
