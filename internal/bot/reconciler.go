package bot

import (
	"context"
	"log"
	"time"

	"github.com/jamesdwilson/byteball-merchant/internal/model"
)

// LedgerView reads the outputs/units projections the ledger monitor
// maintains.  Implemented by repository.LedgerRepo.
type LedgerView interface {
	UnpaidSessionPayments(ctx context.Context, units []string) ([]model.ObservedPayment, error)
	SessionFinality(ctx context.Context, units []string) ([]model.PaymentFinality, error)
}

// Reconciler matches ledger events against outstanding sessions and
// applies the terminal transitions.  Both handlers are idempotent and
// ignore units unrelated to any session.
type Reconciler struct {
	store     SessionStore
	ledger    LedgerView
	messenger Messenger
	locks     *Locks
	now       func() time.Time
}

// NewReconciler wires the reconciler.  locks must be the same keyed
// mutex the dispatcher uses for user-driven transitions so a ledger
// event and a customer message on one session never race.
func NewReconciler(store SessionStore, ledger LedgerView, messenger Messenger, locks *Locks) *Reconciler {
	return &Reconciler{
		store:     store,
		ledger:    ledger,
		messenger: messenger,
		locks:     locks,
		now:       time.Now,
	}
}

// PaymentObserved handles a batch of freshly seen ledger units.  For
// each output paying a session still awaiting payment it compares the
// paid amount against the ordered amount.  Exact match moves the session
// to unconfirmed_payment; a mismatch only notifies the customer and
// leaves the session payable by a correct follow-up transaction.
func (r *Reconciler) PaymentObserved(ctx context.Context, units []string) error {
	payments, err := r.ledger.UnpaidSessionPayments(ctx, units)
	if err != nil {
		return err
	}
	for _, p := range payments {
		unlock := r.locks.lock(p.DeviceAddress)
		if p.PaidAmount != p.ExpectedAmount {
			r.send(ctx, p.DeviceAddress, msgAmountMismatch(p.ExpectedAmount, p.PaidAmount))
			unlock()
			continue
		}
		applied, err := r.store.MarkPaid(ctx, p.SessionID, p.Unit, r.now())
		unlock()
		if err != nil {
			log.Printf("reconciler: mark session %d paid: %v", p.SessionID, err)
			continue
		}
		if !applied {
			// Redelivered event or a cancellation won the race.
			continue
		}
		r.send(ctx, p.DeviceAddress, msgPaymentSeen)
	}
	return nil
}

// PaymentFinalized handles a batch of units whose ultimate fate the
// ledger has decided.  Sessions paid by an accepted unit finish as done;
// sessions paid by a conflicting unit finish as doublespend.  Sessions
// already confirmed are skipped.
func (r *Reconciler) PaymentFinalized(ctx context.Context, units []string) error {
	finalities, err := r.ledger.SessionFinality(ctx, units)
	if err != nil {
		return err
	}
	for _, f := range finalities {
		step := model.StepDoublespend
		text := msgDoublespend
		if f.Accepted() {
			step = model.StepDone
			text = msgConfirmed
		}
		unlock := r.locks.lock(f.DeviceAddress)
		applied, err := r.store.MarkConfirmed(ctx, f.SessionID, step, r.now())
		unlock()
		if err != nil {
			log.Printf("reconciler: confirm session %d: %v", f.SessionID, err)
			continue
		}
		if !applied {
			continue
		}
		r.send(ctx, f.DeviceAddress, text)
		// todo: hand the accepted order to the fulfillment hook
	}
	return nil
}

func (r *Reconciler) send(ctx context.Context, deviceAddress, text string) {
	if err := r.messenger.SendText(ctx, deviceAddress, text); err != nil {
		log.Printf("reconciler: send to %s failed: %v", deviceAddress, err)
	}
}
