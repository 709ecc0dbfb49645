package device

import "strings"

// NormalizeUUID converts a UUID string to the internal lookup format
// (lowercase, no dashes). Handles both the standard dashed format and
// already normalized input.
func NormalizeUUID(uuid string) string {
	return strings.ToLower(strings.ReplaceAll(uuid, "-", ""))
}

// ShortenUUID strips the Bluetooth base-UUID suffix from standard 128-bit
// UUIDs so 16-bit assigned numbers print compactly (e.g. "2a37").
func ShortenUUID(uuid string) string {
	n := NormalizeUUID(uuid)
	if len(n) == 32 && strings.HasSuffix(n, "00001000800000805f9b34fb") && strings.HasPrefix(n, "0000") {
		return n[4:8]
	}
	return uuid
}
