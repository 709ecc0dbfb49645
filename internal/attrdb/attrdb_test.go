package attrdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hakerfromrussia/miolink/internal/attrdb"
)

func TestLookupKnownUUIDs(t *testing.T) {
	require.Equal(t, "Sensor Stream", attrdb.Lookup(attrdb.SensorStreamCharacteristic, "?"))
	require.Equal(t, "Heart Rate Service", attrdb.Lookup("0000180d-0000-1000-8000-00805f9b34fb", "?"))
	require.Equal(t, "Client Characteristic Config", attrdb.Lookup(attrdb.ClientCharacteristicConfig, "?"))
	require.Equal(t, "Open Threshold", attrdb.Lookup(attrdb.OpenThreshold, "?"))
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	require.Equal(t, "Sensor Stream", attrdb.Lookup("43686172-4D74-726B-0201-526F64696F6E", "?"))
}

func TestLookupUnknownReturnsDefault(t *testing.T) {
	require.Equal(t, "Unknown Characteristic",
		attrdb.Lookup("deadbeef-0000-1000-8000-00805f9b34fb", "Unknown Characteristic"))
}

func TestLookupMatchesTransportStringForms(t *testing.T) {
	// go-ble prints 128-bit UUIDs dashless and 16-bit ones as bare hex
	// digits; both must resolve against the dashed table entries.
	require.Equal(t, "Heart Rate Service", attrdb.Lookup("0000180d00001000800000805f9b34fb", "?"))
	require.Equal(t, "Heart Rate Service", attrdb.Lookup("180d", "?"))
	require.Equal(t, "MIO Measurement", attrdb.Lookup("2a37", "?"))
	require.Equal(t, "Client Characteristic Config", attrdb.Lookup("0x2902", "?"))
	require.Equal(t, "Sensor Stream", attrdb.Lookup("436861724d74726b0201526f64696f6e", "?"))
	require.Equal(t, "Band Custom Service", attrdb.Lookup("0000fe40cc7a482a984a7f2ed5b3e58f", "?"))
}
