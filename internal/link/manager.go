// Package link owns the peripheral connection lifecycle: the link state
// machine, automatic reconnection, and the translation of raw sensor
// frames into the published directional signal.
package link

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hakerfromrussia/miolink/internal/attrdb"
	"github.com/hakerfromrussia/miolink/internal/device"
	"github.com/hakerfromrussia/miolink/internal/signal"
)

// Options configures a Manager.
type Options struct {
	// SensorUUID is the characteristic carrying the sensor stream.
	// Defaults to attrdb.SensorStreamCharacteristic.
	SensorUUID string
	// ConnectTimeout bounds each dial attempt. Zero means the transport
	// default.
	ConnectTimeout time.Duration
	// RetryInterval is the subscribe-retry cadence. Zero means
	// DefaultRetryInterval.
	RetryInterval time.Duration
}

// Manager is the single owner of the link state machine.
//
// All link-layer events are consumed by one actor goroutine, preserving
// per-session ordering. External calls (Connect, Disconnect) only touch the
// transport and atomically stored state; every richer transition happens in
// the actor. Link loss triggers an unconditional reconnect with the last
// known address, without backoff or cap, for as long as the session lives.
type Manager struct {
	transport  device.Transport
	classifier *signal.Classifier
	publisher  *signal.Publisher
	subscriber *Subscriber
	logger     *logrus.Logger

	sensorUUID  string
	connectOpts device.ConnectOptions

	state    atomic.Int32
	tornDown atomic.Bool

	mu      sync.Mutex
	addr    string
	catalog *device.Catalog

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a link manager. The publisher is injected so the
// external consumer and the manager share the same instance; there is no
// process-wide singleton.
func NewManager(transport device.Transport, publisher *signal.Publisher, logger *logrus.Logger, opts *Options) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	if opts == nil {
		opts = &Options{}
	}
	sensorUUID := opts.SensorUUID
	if sensorUUID == "" {
		sensorUUID = attrdb.SensorStreamCharacteristic
	}

	return &Manager{
		transport:   transport,
		classifier:  signal.NewClassifier(),
		publisher:   publisher,
		subscriber:  NewSubscriber(transport, sensorUUID, opts.RetryInterval, logger),
		logger:      logger,
		sensorUUID:  device.NormalizeUUID(sensorUUID),
		connectOpts: device.ConnectOptions{ConnectTimeout: opts.ConnectTimeout},
		done:        make(chan struct{}),
	}
}

// Start launches the event loop. Must be called once, before Connect.
func (m *Manager) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)
	go m.run()
}

// Connect initiates a connection to the peripheral at address. Valid only
// from the disconnected state. Fails immediately when no adapter is
// available; that failure is surfaced to the caller and never retried
// automatically.
func (m *Manager) Connect(address string) error {
	if m.State() != StateDisconnected {
		return device.ErrAlreadyConnected
	}
	if err := m.transport.Connect(m.ctx, address, &m.connectOpts); err != nil {
		m.logger.WithFields(logrus.Fields{
			"address": address,
			"error":   err,
		}).Error("Connect failed")
		return err
	}

	m.mu.Lock()
	m.addr = address
	m.mu.Unlock()
	m.setState(StateConnecting)
	return nil
}

// Disconnect ends the session for good: the event loop stops, the
// subscriber unwinds, the transport is torn down and the published signal
// freezes at its last value. No automatic reconnection follows.
func (m *Manager) Disconnect() error {
	if !m.tornDown.CompareAndSwap(false, true) {
		return nil
	}

	m.logger.Info("Disconnecting session")
	m.subscriber.Stop()
	err := m.transport.Disconnect()

	if m.cancel != nil {
		m.cancel()
		<-m.done
	}

	m.setState(StateDisconnected)
	m.clearCatalog()
	m.publisher.Freeze()
	return err
}

// State returns the current link state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Catalog returns the service catalog of the current session, or nil when
// services have not been discovered.
func (m *Manager) Catalog() *device.Catalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog
}

// Signal returns the latest published signal code.
func (m *Manager) Signal() signal.Code {
	return m.publisher.Current()
}

func (m *Manager) setState(s State) {
	prev := State(m.state.Swap(int32(s)))
	if prev != s {
		m.logger.WithFields(logrus.Fields{
			"from": prev.String(),
			"to":   s.String(),
		}).Info("Link state changed")
	}
}

func (m *Manager) clearCatalog() {
	m.mu.Lock()
	m.catalog = nil
	m.mu.Unlock()
}

func (m *Manager) run() {
	defer close(m.done)

	for {
		select {
		case <-m.ctx.Done():
			return
		case ev, ok := <-m.transport.Events():
			if !ok {
				return
			}
			m.handle(ev)
		}
	}
}

func (m *Manager) handle(ev device.Event) {
	switch ev.Kind {
	case device.EventLinkUp:
		m.setState(StateConnected)
		m.transport.DiscoverServices()

	case device.EventServices:
		m.handleServices(ev)

	case device.EventLinkDown:
		m.handleLinkLost()

	case device.EventNotification:
		m.handleNotification(ev)
	}
}

func (m *Manager) handleServices(ev device.Event) {
	if m.State() != StateConnected {
		m.logger.WithField("state", m.State().String()).Debug("Ignoring discovery result outside connected state")
		return
	}
	if ev.Err != nil {
		// A failed discovery pass is swallowed: no retry, no state change.
		// The band stays connected but silent until the link cycles.
		m.logger.WithError(ev.Err).Debug("Service discovery reported non-success status")
		return
	}
	if ev.Catalog == nil {
		m.logger.Debug("Discovery result carried no catalog")
		return
	}

	m.mu.Lock()
	m.catalog = ev.Catalog
	m.mu.Unlock()

	m.logger.WithField("services", ev.Catalog.Len()).Info("Service catalog rebuilt")
	m.subscriber.Arm(m.ctx)
}

func (m *Manager) handleLinkLost() {
	m.setState(StateDisconnected)
	m.clearCatalog()
	m.subscriber.Stop()

	if m.tornDown.Load() {
		return
	}

	m.mu.Lock()
	addr := m.addr
	m.mu.Unlock()
	if addr == "" {
		return
	}

	// Unconditional reconnect with the last known address. No backoff and
	// no cap: the band is an always-on control channel and transient drops
	// are expected.
	m.logger.WithField("address", addr).Info("Reconnecting")
	if err := m.transport.Connect(m.ctx, addr, &m.connectOpts); err != nil {
		m.logger.WithFields(logrus.Fields{
			"address": addr,
			"error":   err,
		}).Error("Reconnect failed")
		return
	}
	m.setState(StateConnecting)
}

func (m *Manager) handleNotification(ev device.Event) {
	if device.NormalizeUUID(ev.Char) != m.sensorUUID {
		return
	}
	if len(ev.Data) < 2 {
		m.logger.WithField("len", len(ev.Data)).Debug("Dropping short sensor frame")
		return
	}

	m.subscriber.MarkFrameSeen()

	d := m.classifier.Feed(ev.Data[0], ev.Data[1])
	m.publisher.Publish(d)

	m.logger.WithFields(logrus.Fields{
		"s1":        ev.Data[0],
		"s2":        ev.Data[1],
		"direction": d.String(),
	}).Debug("Sensor frame classified")
}
