package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Event is an inbound event for the core.  The concrete types below are
// the only implementations.
type Event interface{ event() }

// Paired signals first contact from a device.
type Paired struct{ DeviceAddress string }

// Text is an inbound chat message from a device.
type Text struct {
	DeviceAddress string
	Body          string
}

// PaymentObserved is a batch of ledger units newly seen paying tracked
// addresses.
type PaymentObserved struct{ Units []string }

// PaymentFinalized is a batch of ledger units whose acceptance or
// rejection became final.
type PaymentFinalized struct{ Units []string }

func (Paired) event()           {}
func (Text) event()             {}
func (PaymentObserved) event()  {}
func (PaymentFinalized) event() {}

// Limiter throttles inbound traffic per device.  A nil Limiter means no
// throttling.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Dispatcher routes inbound events to the engine and the reconciler.
// Events for one device are applied under that device's lock in arrival
// order; events for different devices are independent.  The transport
// delivers events one at a time per consumer, so the per-device locks
// only matter when user-driven and ledger-driven paths touch the same
// session.
type Dispatcher struct {
	engine  *Engine
	rec     *Reconciler
	limiter Limiter
	locks   *Locks
}

// NewDispatcher wires the dispatcher.  Use NewLocks to create the keyed
// mutex shared with the reconciler.
func NewDispatcher(engine *Engine, rec *Reconciler, limiter Limiter, locks *Locks) *Dispatcher {
	return &Dispatcher{engine: engine, rec: rec, limiter: limiter, locks: locks}
}

// Handle processes one inbound event to completion.  The returned error
// is the handler's verdict: the transport decides whether to drop or
// dead-letter the delivery.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case Paired:
		unlock := d.locks.lock(e.DeviceAddress)
		defer unlock()
		return d.engine.HandlePaired(ctx, e.DeviceAddress)
	case Text:
		if d.limiter != nil {
			allowed, err := d.limiter.Allow(ctx, e.DeviceAddress)
			if err != nil {
				log.Printf("dispatcher: limiter for %s: %v", e.DeviceAddress, err)
			} else if !allowed {
				// Dropped silently: replying would amplify the flood.
				log.Printf("dispatcher: throttled %s", e.DeviceAddress)
				return nil
			}
		}
		unlock := d.locks.lock(e.DeviceAddress)
		defer unlock()
		return d.engine.HandleText(ctx, e.DeviceAddress, e.Body)
	case PaymentObserved:
		return d.rec.PaymentObserved(ctx, e.Units)
	case PaymentFinalized:
		return d.rec.PaymentFinalized(ctx, e.Units)
	default:
		return fmt.Errorf("dispatcher: unknown event type %T", ev)
	}
}

// Locks serializes work per string key.  Mutexes are created on
// first use and kept for the process lifetime; the key space (paired
// devices) is small.
type Locks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

// NewLocks returns an empty keyed mutex.
func NewLocks() *Locks {
	return &Locks{m: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock function.
func (k *Locks) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.m[key]
	if !ok {
		m = &sync.Mutex{}
		k.m[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
