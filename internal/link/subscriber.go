package link

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hakerfromrussia/miolink/internal/device"
)

// DefaultRetryInterval is the cadence at which the subscriber re-issues
// the enable-notifications command until the first valid frame arrives.
const DefaultRetryInterval = 500 * time.Millisecond

// Subscriber arms the sensor notification channel after service discovery.
//
// The band occasionally ignores the first CCCD write, so the subscriber
// re-issues the subscribe command at a fixed interval until one valid frame
// has been observed, then stops for the rest of the session. It is re-armed
// on the next successful reconnection. The loop runs on its own goroutine
// and never blocks the caller delivering link events.
type Subscriber struct {
	transport device.Transport
	charUUID  string
	interval  time.Duration
	logger    *logrus.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	frameSeen atomic.Bool
}

// NewSubscriber creates a subscriber for the given characteristic. A zero
// interval means DefaultRetryInterval.
func NewSubscriber(transport device.Transport, charUUID string, interval time.Duration, logger *logrus.Logger) *Subscriber {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Subscriber{
		transport: transport,
		charUUID:  charUUID,
		interval:  interval,
		logger:    logger,
	}
}

// Arm starts (or restarts) the retry loop for a fresh connection session.
// Any loop from a previous session is cancelled first.
func (s *Subscriber) Arm(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.frameSeen.Store(false)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"char_uuid": s.charUUID,
		"interval":  s.interval,
	}).Debug("Arming notification subscriber")

	go s.run(loopCtx)
}

// Stop cancels the retry loop. The loop observes the stop signal within
// one interval. Idempotent.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

// MarkFrameSeen records that a valid frame arrived; the retry loop exits
// at its next check and no further subscribe commands are issued until the
// subscriber is re-armed.
func (s *Subscriber) MarkFrameSeen() {
	s.frameSeen.Store(true)
}

func (s *Subscriber) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if s.frameSeen.Load() {
			s.logger.WithField("char_uuid", s.charUUID).Debug("Frame observed, subscriber loop done")
			return
		}
		if ctx.Err() != nil {
			return
		}

		// A failed write is logged and left to the next tick; there is no
		// tighter retry.
		if err := s.transport.EnableNotifications(s.charUUID); err != nil {
			s.logger.WithFields(logrus.Fields{
				"char_uuid": s.charUUID,
				"error":     err,
			}).Warn("Enable notifications failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
