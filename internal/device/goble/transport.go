package goble

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/hakerfromrussia/miolink/internal/device"
)

// EventBuffer is the capacity of the transport's event channel. Lifecycle
// events always get through; notifications drop the oldest pending value
// when the consumer falls behind (last-write-wins is enough downstream).
const EventBuffer = 128

// Transport is the go-ble implementation of device.Transport. It owns the
// ble.Client for the current link and translates the library's callbacks
// into ordered device.Event messages.
type Transport struct {
	logger *logrus.Logger
	events chan device.Event

	mu      sync.Mutex
	client  ble.Client
	profile *ble.Profile
	session uint64 // bumped on every Connect/Disconnect to fence stale goroutines
}

// NewTransport creates a Transport. The caller drains Events for the whole
// lifetime of the transport.
func NewTransport(logger *logrus.Logger) *Transport {
	if logger == nil {
		logger = logrus.New()
	}
	return &Transport{
		logger: logger,
		events: make(chan device.Event, EventBuffer),
	}
}

// Events returns the ordered stream of link events.
func (t *Transport) Events() <-chan device.Event {
	return t.events
}

// Connect starts dialing the peripheral. AdapterUnavailable and an empty
// address fail the call immediately; the dial itself runs in the background
// and reports its outcome as EventLinkUp or EventLinkDown.
func (t *Transport) Connect(ctx context.Context, address string, opts *device.ConnectOptions) error {
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("%w: device address is not set", device.ErrConnectFailed)
	}

	if _, err := openAdapter(); err != nil {
		t.logger.WithError(err).Error("BLE adapter is not available")
		return err
	}

	timeout := device.DefaultConnectTimeout
	if opts != nil && opts.ConnectTimeout > 0 {
		timeout = opts.ConnectTimeout
	}

	t.mu.Lock()
	if t.client != nil {
		t.mu.Unlock()
		return device.ErrAlreadyConnected
	}
	t.session++
	session := t.session
	t.mu.Unlock()

	t.logger.WithFields(logrus.Fields{
		"address": address,
		"timeout": timeout,
	}).Info("Dialing BLE device")

	go t.dial(ctx, session, address, timeout)
	return nil
}

func (t *Transport) dial(ctx context.Context, session uint64, address string, timeout time.Duration) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := ble.Dial(dialCtx, ble.NewAddr(address))
	if err != nil {
		t.logger.WithFields(logrus.Fields{
			"address": address,
			"error":   err,
		}).Warn("Failed to dial BLE device")
		t.post(device.Event{Kind: device.EventLinkDown})
		return
	}

	t.mu.Lock()
	if t.session != session {
		// Disconnect raced the dial; drop the late connection.
		t.mu.Unlock()
		_ = client.CancelConnection()
		return
	}
	t.client = client
	t.mu.Unlock()

	t.logger.WithField("address", address).Info("BLE link established")
	t.post(device.Event{Kind: device.EventLinkUp})

	// Watch for link loss for as long as this session is current.
	<-client.Disconnected()

	t.mu.Lock()
	stale := t.session != session
	if !stale {
		t.client = nil
		t.profile = nil
	}
	t.mu.Unlock()
	if stale {
		return
	}

	t.logger.WithField("address", address).Warn("BLE link lost")
	t.post(device.Event{Kind: device.EventLinkDown})
}

// DiscoverServices starts a discovery pass on the current link. The result
// arrives as an EventServices event; a non-success status is carried in
// Event.Err with a nil catalog.
func (t *Transport) DiscoverServices() {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()

	go func() {
		if client == nil {
			t.post(device.Event{Kind: device.EventServices, Err: device.ErrNotConnected})
			return
		}

		bleProfile, err := client.DiscoverProfile(true)
		if err != nil {
			t.logger.WithError(err).Warn("Service discovery failed")
			t.post(device.Event{Kind: device.EventServices, Err: err})
			return
		}

		catalog := device.NewCatalog()
		for _, bleSvc := range bleProfile.Services {
			svc := catalog.AddService(bleSvc.UUID.String())
			t.logger.WithField("service_uuid", device.ShortenUUID(bleSvc.UUID.String())).Debug("Found service")
			for _, bleChar := range bleSvc.Characteristics {
				svc.AddCharacteristic(bleChar.UUID.String(), bleChar.Handle)
				t.logger.WithFields(logrus.Fields{
					"service_uuid": device.ShortenUUID(bleSvc.UUID.String()),
					"char_uuid":    device.ShortenUUID(bleChar.UUID.String()),
				}).Debug("Found characteristic")
			}
		}

		t.mu.Lock()
		t.profile = bleProfile
		t.mu.Unlock()

		t.logger.WithField("services", catalog.Len()).Info("Service discovery complete")
		t.post(device.Event{Kind: device.EventServices, Catalog: catalog})
	}()
}

// EnableNotifications writes the CCCD of the given characteristic to turn
// on notifications. Each incoming value is delivered as an
// EventNotification event.
func (t *Transport) EnableNotifications(charUUID string) error {
	t.mu.Lock()
	client := t.client
	profile := t.profile
	t.mu.Unlock()

	if client == nil {
		return device.ErrNotConnected
	}
	if profile == nil {
		return fmt.Errorf("%w: services not discovered", device.ErrNotConnected)
	}

	bleChar := findCharacteristic(profile, charUUID)
	if bleChar == nil {
		return fmt.Errorf("%w: characteristic %q not found", device.ErrWriteFailed, charUUID)
	}

	normalized := device.NormalizeUUID(charUUID)
	err := client.Subscribe(bleChar, false, func(data []byte) {
		// go-ble reuses the buffer; copy before handing it off.
		payload := make([]byte, len(data))
		copy(payload, data)
		t.postNotification(device.Event{Kind: device.EventNotification, Char: normalized, Data: payload})
	})
	if err != nil {
		t.logger.WithFields(logrus.Fields{
			"char_uuid": charUUID,
			"error":     err,
		}).Warn("Failed to enable notifications")
		return fmt.Errorf("%w: %v", device.ErrWriteFailed, err)
	}

	t.logger.WithField("char_uuid", device.ShortenUUID(charUUID)).Info("Notifications enabled")
	return nil
}

// Disconnect tears down the current link. The pending session is fenced so
// a dial still in flight cannot resurrect the connection.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	client := t.client
	t.client = nil
	t.profile = nil
	t.session++
	t.mu.Unlock()

	if client == nil {
		t.logger.Debug("Disconnect requested while already disconnected")
		return nil
	}

	t.logger.Info("Disconnecting BLE device")
	if err := client.CancelConnection(); err != nil {
		return device.NormalizeError(err)
	}
	return nil
}

// post delivers a lifecycle event, blocking until the consumer accepts it.
// Lifecycle events are rare and must not be dropped.
func (t *Transport) post(ev device.Event) {
	t.events <- ev
}

// postNotification delivers a notification without blocking the go-ble
// callback goroutine. When the channel is full the frame is dropped;
// downstream consumers only care about the latest value, and pulling from
// the channel here could discard a queued lifecycle event.
func (t *Transport) postNotification(ev device.Event) {
	select {
	case t.events <- ev:
	default:
		t.logger.Debug("Event channel full, dropping notification frame")
	}
}

func findCharacteristic(profile *ble.Profile, uuid string) *ble.Characteristic {
	target := device.NormalizeUUID(uuid)
	for _, svc := range profile.Services {
		for _, char := range svc.Characteristics {
			if device.NormalizeUUID(char.UUID.String()) == target {
				return char
			}
		}
	}
	return nil
}
