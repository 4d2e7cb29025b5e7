package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jamesdwilson/byteball-merchant/internal/model"
	"github.com/jamesdwilson/byteball-merchant/internal/repository"
)

// fakeStore is an in-memory SessionStore that mirrors the SQL guards of
// repository.SessionRepo: optimistic step checks on Update and
// already-applied detection on the Mark* mutators.
type fakeStore struct {
	mu       sync.Mutex
	nextID   uint64
	sessions []*model.Session
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (f *fakeStore) Create(_ context.Context, deviceAddress string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s := &model.Session{
		ID:            f.nextID,
		DeviceAddress: deviceAddress,
		Step:          model.StepChoosePizza,
		CreatedAt:     time.Now().UTC(),
	}
	f.sessions = append(f.sessions, s)
	return copySession(s), nil
}

func (f *fakeStore) LatestByDevice(_ context.Context, deviceAddress string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sessions) - 1; i >= 0; i-- {
		if f.sessions[i].DeviceAddress == deviceAddress {
			return copySession(f.sessions[i]), nil
		}
	}
	return nil, repository.ErrNoActiveSession
}

func (f *fakeStore) Update(_ context.Context, s *model.Session, expected model.Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.byID(s.ID)
	if stored == nil {
		return errors.New("no such session")
	}
	if stored.Step != expected {
		return repository.ErrStaleSession
	}
	stored.Step = s.Step
	stored.Order = s.Order
	stored.Amount = s.Amount
	stored.PaymentAddress = s.PaymentAddress
	return nil
}

func (f *fakeStore) MarkPaid(_ context.Context, sessionID uint64, unit string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.byID(sessionID)
	if stored == nil || stored.PaidAt != nil || stored.CancelledAt != nil {
		return false, nil
	}
	t := at.UTC()
	stored.PaidAt = &t
	stored.PaymentUnit = &unit
	stored.Step = model.StepUnconfirmedPayment
	return true, nil
}

func (f *fakeStore) MarkCancelled(_ context.Context, sessionID uint64, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.byID(sessionID)
	if stored == nil || stored.CancelledAt != nil || stored.PaidAt != nil {
		return false, nil
	}
	t := at.UTC()
	stored.CancelledAt = &t
	return true, nil
}

func (f *fakeStore) MarkConfirmed(_ context.Context, sessionID uint64, step model.Step, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.byID(sessionID)
	if stored == nil || stored.ConfirmedAt != nil {
		return false, nil
	}
	t := at.UTC()
	stored.ConfirmedAt = &t
	stored.Step = step
	return true, nil
}

// byID must be called with the lock held.
func (f *fakeStore) byID(id uint64) *model.Session {
	for _, s := range f.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// latest returns the stored (not copied) newest session for assertions.
func (f *fakeStore) latest(deviceAddress string) *model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sessions) - 1; i >= 0; i-- {
		if f.sessions[i].DeviceAddress == deviceAddress {
			return f.sessions[i]
		}
	}
	return nil
}

func (f *fakeStore) count(deviceAddress string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sessions {
		if s.DeviceAddress == deviceAddress {
			n++
		}
	}
	return n
}

// corrupt overwrites a stored step with an out-of-enum value, simulating
// data corruption.
func (f *fakeStore) corrupt(sessionID uint64, step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s := f.byID(sessionID); s != nil {
		s.Step = model.Step(step)
	}
}

func copySession(s *model.Session) *model.Session {
	c := *s
	return &c
}

type sentText struct {
	DeviceAddress string
	Text          string
}

// fakeMessenger records every text the core tried to deliver.
type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentText
}

func (m *fakeMessenger) SendText(_ context.Context, deviceAddress, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentText{DeviceAddress: deviceAddress, Text: text})
	return nil
}

func (m *fakeMessenger) last() (sentText, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentText{}, false
	}
	return m.sent[len(m.sent)-1], true
}

func (m *fakeMessenger) countFor(deviceAddress string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.DeviceAddress == deviceAddress {
			n++
		}
	}
	return n
}

// fakeWallet issues sequential addresses and can simulate an
// unconfigured shop.
type fakeWallet struct {
	mu     sync.Mutex
	ready  bool
	id     string
	issued int
}

func (w *fakeWallet) ID() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.id, w.ready
}

func (w *fakeWallet) CreateIfAbsent(context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.ready {
		w.id = "WALLET"
		w.ready = true
	}
	return w.id, nil
}

func (w *fakeWallet) IssueAddress(context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.ready {
		return "", errors.New("wallet not configured")
	}
	w.issued++
	return fmt.Sprintf("ADDRESS-%d", w.issued), nil
}

// fakeLedger serves canned projection rows filtered by the requested
// units, like the SQL joins would.
type fakeLedger struct {
	payments   []model.ObservedPayment
	finalities []model.PaymentFinality
	store      *fakeStore
}

func (l *fakeLedger) UnpaidSessionPayments(_ context.Context, units []string) ([]model.ObservedPayment, error) {
	var out []model.ObservedPayment
	for _, p := range l.payments {
		if !containsUnit(units, p.Unit) {
			continue
		}
		// The SQL excludes sessions already paid.
		if l.store != nil {
			if s := l.store.latestByID(p.SessionID); s != nil && s.PaidAt != nil {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (l *fakeLedger) SessionFinality(_ context.Context, units []string) ([]model.PaymentFinality, error) {
	var out []model.PaymentFinality
	for _, f := range l.finalities {
		if !containsUnit(units, f.Unit) {
			continue
		}
		// The SQL excludes sessions already confirmed.
		if l.store != nil {
			if s := l.store.latestByID(f.SessionID); s != nil && s.ConfirmedAt != nil {
				continue
			}
		}
		out = append(out, f)
	}
	return out, nil
}

func (f *fakeStore) latestByID(id uint64) *model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID(id)
}

func containsUnit(units []string, unit string) bool {
	for _, u := range units {
		if u == unit {
			return true
		}
	}
	return false
}
