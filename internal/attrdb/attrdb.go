// Package attrdb holds the static GATT attribute table for the muscle band.
//
// The table maps characteristic and service UUIDs to human-readable names
// used for logging and inspection. Exactly one entry carries behavioral
// weight: SensorStreamCharacteristic, the notification channel that streams
// the two-byte muscle sensor frames. Everything else is cosmetic.
package attrdb

import "strings"

// Well-known characteristic UUIDs exposed by the band firmware.
const (
	// SensorStreamCharacteristic is the characteristic the bridge subscribes
	// to. Each notification carries a two-byte frame: byte 0 is the "open"
	// muscle magnitude, byte 1 the "close" magnitude, both 0-255.
	SensorStreamCharacteristic = "43686172-4d74-726b-0201-526f64696f6e"

	// ClientCharacteristicConfig is the standard CCCD used to enable
	// notifications on the sensor stream.
	ClientCharacteristicConfig = "00002902-0000-1000-8000-00805f9b34fb"

	MioMeasurement    = "00002a37-0000-1000-8000-00805f9b34fb"
	DriverVersion     = "00002a26-0000-1000-8000-00805f9b34fb"
	OpenThreshold     = "43686172-4d74-726b-0000-526f64696f6e"
	CloseThreshold    = "43686172-4d74-726b-0001-526f64696f6e"
	OpenMotor         = "43686172-4d74-726b-0002-526f64696f6e"
	CloseMotor        = "43686172-4d74-726b-0003-526f64696f6e"
	SetGesture        = "43686172-4d74-726b-0005-526f64696f6e"
	SetReverse        = "43686172-4d74-726b-0006-526f64696f6e"
	Calibration       = "43686172-4d74-726b-0008-526f64696f6e"
	StatusCalibration = "43686172-4d74-726b-0009-526f64696f6e"
	ShutdownCurrent   = "43686172-4d74-726b-000c-526f64696f6e"
	SensOptions       = "43686172-4d74-726b-0200-526f64696f6e"
	SensVersion       = "43686172-4d74-726b-0202-526f64696f6e"
	SensEnabled       = "43686172-4d74-726b-0203-526f64696f6e"
	TelemetryNumber   = "43686172-4d74-726b-0300-526f64696f6e"
)

var attributes = map[string]string{
	// Services.
	"0000180d-0000-1000-8000-00805f9b34fb": "Heart Rate Service",
	"0000180a-0000-1000-8000-00805f9b34fb": "Device Information Service",
	"00001810-0000-1000-8000-00805f9b34fb": "Band Control Service",
	"0000fe40-cc7a-482a-984a-7f2ed5b3e58f": "Band Custom Service",

	// Characteristics.
	SensorStreamCharacteristic:             "Sensor Stream",
	ClientCharacteristicConfig:             "Client Characteristic Config",
	MioMeasurement:                         "MIO Measurement",
	DriverVersion:                          "Driver Version",
	"00002a29-0000-1000-8000-00805f9b34fb": "Manufacturer Name String",
	OpenThreshold:                          "Open Threshold",
	CloseThreshold:                         "Close Threshold",
	OpenMotor:                              "Motor Open",
	CloseMotor:                             "Motor Close",
	SetGesture:                             "Set Gesture",
	SetReverse:                             "Set Reverse",
	Calibration:                            "Calibration",
	StatusCalibration:                      "Calibration Status",
	ShutdownCurrent:                        "Shutdown Current",
	SensOptions:                            "Sensor Options",
	SensVersion:                            "Sensor Version",
	SensEnabled:                            "Sensor Enabled",
	TelemetryNumber:                        "Telemetry Number",
}

// byKey indexes the table by canonical UUID so lookups succeed regardless
// of the input format: dashed, dashless, 16-bit short form.
var byKey = func() map[string]string {
	m := make(map[string]string, len(attributes))
	for uuid, name := range attributes {
		m[canonical(uuid)] = name
	}
	return m
}()

// Lookup returns the display name for a known UUID, or def when the UUID is
// not in the table. Matching ignores case, dashes and the Bluetooth base-UUID
// expansion of 16-bit assigned numbers.
func Lookup(uuid, def string) string {
	if name, ok := byKey[canonical(uuid)]; ok {
		return name
	}
	return def
}

// baseSuffix is the tail of the Bluetooth SIG base UUID. 16-bit assigned
// numbers expand to 0000xxxx followed by this suffix.
const baseSuffix = "00001000800000805f9b34fb"

// canonical reduces a UUID to the map-key form: lowercase, no dashes, no 0x
// prefix, with base-format 128-bit UUIDs collapsed to their 16-bit assigned
// number. go-ble prints 16-bit UUIDs as bare hex digits and 128-bit ones
// dashless, so both arrive here as-is.
func canonical(uuid string) string {
	n := strings.ToLower(strings.ReplaceAll(uuid, "-", ""))
	n = strings.TrimPrefix(n, "0x")
	if len(n) == 32 && strings.HasPrefix(n, "0000") && strings.HasSuffix(n, baseSuffix) {
		return n[4:8]
	}
	return n
}
