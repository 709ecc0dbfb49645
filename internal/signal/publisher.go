package signal

import (
	"sync/atomic"

	"github.com/hakerfromrussia/miolink/internal/ringchan"
)

// UpdateBuffer is the capacity of the publisher's update stream. A slow
// consumer only ever observes the most recent values.
const UpdateBuffer = 8

// Publisher exposes the latest classified state to outside consumers.
//
// Reads are last-write-wins: Current returns the most recent code, and the
// Updates stream overwrites its oldest entry when the consumer lags. There
// is no queue and no backpressure.
//
// Publish and Freeze are called only by the owning link manager goroutine;
// Current and Updates may be used from any goroutine.
type Publisher struct {
	code   atomic.Int32
	stream *ringchan.RingChannel[Code]
	frozen bool
}

// NewPublisher creates a publisher with the code set to CodeUnspecified.
func NewPublisher() *Publisher {
	return &Publisher{
		stream: ringchan.New[Code](UpdateBuffer),
	}
}

// Publish records a new directional state. No-op after Freeze.
func (p *Publisher) Publish(d Direction) {
	if p.frozen {
		return
	}
	p.code.Store(int32(d.Code()))
	p.stream.Send(d.Code())
}

// Current returns the most recently published code.
func (p *Publisher) Current() Code {
	return Code(p.code.Load())
}

// Updates returns the observable stream of published codes. The channel is
// closed when the session ends; the last published value stays readable
// via Current.
func (p *Publisher) Updates() <-chan Code {
	return p.stream.C()
}

// Freeze stops all future publishes and closes the update stream. The
// current code remains at its last value. Idempotent.
func (p *Publisher) Freeze() {
	if p.frozen {
		return
	}
	p.frozen = true
	p.stream.Close()
}
