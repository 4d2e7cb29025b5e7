// Package bot implements the merchant's conversational core: the order
// state machine driven by customer messages and the payment reconciler
// driven by ledger events.  Both paths share the persisted session store
// and are serialized per customer by the dispatcher.
package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jamesdwilson/byteball-merchant/internal/catalog"
	"github.com/jamesdwilson/byteball-merchant/internal/model"
	"github.com/jamesdwilson/byteball-merchant/internal/repository"
)

// SessionStore is the persistence surface the core mutates.  Implemented
// by repository.SessionRepo; tests supply an in-memory fake.  The Mark*
// mutators report false when the mutation was already applied, which is
// how at-least-once event delivery stays safe.
type SessionStore interface {
	Create(ctx context.Context, deviceAddress string) (*model.Session, error)
	LatestByDevice(ctx context.Context, deviceAddress string) (*model.Session, error)
	Update(ctx context.Context, s *model.Session, expected model.Step) error
	MarkPaid(ctx context.Context, sessionID uint64, unit string, at time.Time) (bool, error)
	MarkCancelled(ctx context.Context, sessionID uint64, at time.Time) (bool, error)
	MarkConfirmed(ctx context.Context, sessionID uint64, step model.Step, at time.Time) (bool, error)
}

// Messenger delivers a text to a remote device.  Delivery is
// fire-and-forget: the core never retries, it only logs failures.
type Messenger interface {
	SendText(ctx context.Context, deviceAddress, text string) error
}

// Wallet is the address-issuing collaborator.  ID reports the wallet
// identity resolved at startup, with ok=false meaning not configured.
type Wallet interface {
	ID() (string, bool)
	CreateIfAbsent(ctx context.Context) (string, error)
	IssueAddress(ctx context.Context) (string, error)
}

// Engine is the order state machine.  It validates each inbound message
// against the customer's current session step, applies the resulting
// transition and replies.  Unrecognized input never advances state; it
// only re-prompts.
type Engine struct {
	store      SessionStore
	wallet     Wallet
	messenger  Messenger
	homeDevice string
	now        func() time.Time
}

// NewEngine wires the state machine.  homeDevice is the operator's
// device address, the only one allowed to trigger wallet creation.
func NewEngine(store SessionStore, wallet Wallet, messenger Messenger, homeDevice string) *Engine {
	return &Engine{
		store:      store,
		wallet:     wallet,
		messenger:  messenger,
		homeDevice: homeDevice,
		now:        time.Now,
	}
}

// HandlePaired handles first contact from a device: it opens a session
// and greets with the topping list.
func (e *Engine) HandlePaired(ctx context.Context, deviceAddress string) error {
	if _, ok := e.wallet.ID(); !ok {
		return e.handleNoWallet(ctx, deviceAddress)
	}
	if _, err := e.store.Create(ctx, deviceAddress); err != nil {
		return err
	}
	e.send(ctx, deviceAddress, msgGreeting())
	return nil
}

// HandleText advances the device's current session according to the
// inbound message.  Comparisons are case-insensitive on trimmed input.
func (e *Engine) HandleText(ctx context.Context, deviceAddress, text string) error {
	if _, ok := e.wallet.ID(); !ok {
		return e.handleNoWallet(ctx, deviceAddress)
	}
	token := catalog.NormalizeToken(text)

	s, err := e.store.LatestByDevice(ctx, deviceAddress)
	if err != nil {
		// ErrNoActiveSession here means pairing never created one: a
		// bootstrap bug, not something to paper over.
		return err
	}

	switch s.Step {
	case model.StepChoosePizza:
		return e.choosePizza(ctx, s, token)
	case model.StepChooseCola:
		return e.chooseCola(ctx, s, token)
	case model.StepWaitingForPayment:
		return e.awaitPayment(ctx, s, token)
	case model.StepUnconfirmedPayment:
		e.send(ctx, s.DeviceAddress, msgBePatient)
		return nil
	case model.StepDone, model.StepDoublespend:
		return e.startOver(ctx, s)
	default:
		return fmt.Errorf("%w: %q on session %d", repository.ErrInvalidStep, s.Step, s.ID)
	}
}

func (e *Engine) choosePizza(ctx context.Context, s *model.Session, token string) error {
	name, ok := catalog.ToppingName(token)
	if !ok {
		e.send(ctx, s.DeviceAddress, msgChooseTopping())
		return nil
	}
	s.Order.Pizza = token
	s.Step = model.StepChooseCola
	if err := e.store.Update(ctx, s, model.StepChoosePizza); err != nil {
		return err
	}
	e.send(ctx, s.DeviceAddress, msgAddCola(name))
	return nil
}

func (e *Engine) chooseCola(ctx context.Context, s *model.Session, token string) error {
	if !catalog.IsYesNo(token) {
		e.send(ctx, s.DeviceAddress, msgColaReprompt)
		return nil
	}
	address, err := e.wallet.IssueAddress(ctx)
	if err != nil {
		return fmt.Errorf("issue receiving address: %w", err)
	}
	s.Order.Cola = token
	s.Step = model.StepWaitingForPayment
	amount := catalog.PizzaPriceBytes
	if token == "yes" {
		amount += catalog.ColaPriceBytes
	}
	s.Amount = &amount
	s.PaymentAddress = &address
	if err := e.store.Update(ctx, s, model.StepChooseCola); err != nil {
		return err
	}
	toppingName, _ := catalog.ToppingName(s.Order.Pizza)
	e.send(ctx, s.DeviceAddress, msgOrderSummary(toppingName, token == "yes", amount, address))
	return nil
}

func (e *Engine) awaitPayment(ctx context.Context, s *model.Session, token string) error {
	if token != "cancel" {
		e.send(ctx, s.DeviceAddress, msgWaitingHint)
		return nil
	}
	cancelled, err := e.store.MarkCancelled(ctx, s.ID, e.now())
	if err != nil {
		return err
	}
	if !cancelled {
		// Either a payment landed first, or a previous cancel recorded
		// cancel_date but died before opening the fresh session.
		// Re-read to tell the two apart.
		cur, err := e.store.LatestByDevice(ctx, s.DeviceAddress)
		if err != nil {
			return err
		}
		if cur.ID != s.ID || cur.CancelledAt == nil {
			// A payment won the race; the reconciler already moved the
			// session on and notified the customer.
			return nil
		}
		// Cancelled but not yet replaced: fall through and finish the job.
	}
	if _, err := e.store.Create(ctx, s.DeviceAddress); err != nil {
		return err
	}
	e.send(ctx, s.DeviceAddress, msgCancelled())
	return nil
}

func (e *Engine) startOver(ctx context.Context, s *model.Session) error {
	if _, err := e.store.Create(ctx, s.DeviceAddress); err != nil {
		return err
	}
	e.send(ctx, s.DeviceAddress, msgStartOver(s.Step))
	return nil
}

// handleNoWallet answers any contact that arrives before the wallet is
// configured.  The home device triggers wallet creation; everyone else
// is asked to come back later.
func (e *Engine) handleNoWallet(ctx context.Context, deviceAddress string) error {
	if deviceAddress == e.homeDevice {
		if _, err := e.wallet.CreateIfAbsent(ctx); err != nil {
			return fmt.Errorf("create wallet: %w", err)
		}
		e.send(ctx, deviceAddress, msgWalletCreated)
		return nil
	}
	e.send(ctx, deviceAddress, msgShopNotReady)
	return nil
}

func (e *Engine) send(ctx context.Context, deviceAddress, text string) {
	if err := e.messenger.SendText(ctx, deviceAddress, text); err != nil {
		log.Printf("bot: send to %s failed: %v", deviceAddress, err)
	}
}
