// Package queue defines the acknowledgment contract for inbound requests.
//
// Every request carries a Delivery that must be acknowledged exactly once,
// on success and on failure alike, so the underlying transport never
// redelivers a request whose outcome has already been decided. The gRPC
// transport has no broker semantics and uses Noop; a broker-backed transport
// plugs its own Delivery in without touching the handlers.
package queue

import "sync"

// Delivery represents one inbound request on the underlying transport.
type Delivery interface {
	// Ack marks the request as consumed. Implementations wrapped by Once
	// tolerate repeated calls; bare implementations may not.
	Ack() error
}

type onceDelivery struct {
	d    Delivery
	once sync.Once
	err  error
}

// Once wraps d so that the underlying Ack runs at most one time. Repeated
// calls return the first call's result.
func Once(d Delivery) Delivery {
	return &onceDelivery{d: d}
}

func (o *onceDelivery) Ack() error {
	o.once.Do(func() {
		o.err = o.d.Ack()
	})
	return o.err
}

type noopDelivery struct{}

func (noopDelivery) Ack() error { return nil }

// Noop returns a Delivery whose Ack does nothing. Used by transports that
// acknowledge implicitly, such as unary gRPC.
func Noop() Delivery {
	return noopDelivery{}
}
