package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jamesdwilson/byteball-merchant/internal/model"
)

// SessionRepo provides CRUD operations for order sessions.  One row in
// the states table is one session; a customer (device address) owns many
// rows over time but at most one active one.  Rows are never deleted:
// finished and cancelled sessions remain as order history.  All
// timestamp fields are stored in UTC.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = "state_id, device_address, step, `order`, amount, address, unit, pay_date, confirmation_date, cancel_date, creation_date"

// Create inserts a fresh session for the device at the initial step with
// an empty order and returns the stored row.  Prior sessions of the same
// device are left untouched.
func (r *SessionRepo) Create(ctx context.Context, deviceAddress string) (*model.Session, error) {
	const q = "INSERT INTO states (device_address, step, `order`) VALUES (?, ?, '{}')"
	result, err := r.db.ExecContext(ctx, q, deviceAddress, string(model.StepChoosePizza))
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	// Query back the full row to populate timestamps and defaults
	const sel = "SELECT " + sessionColumns + " FROM states WHERE state_id = ?"
	return scanSession(r.db.QueryRowContext(ctx, sel, id))
}

// LatestByDevice returns the most recently created session for the
// device.  It returns ErrNoActiveSession when the device has no session
// at all; callers are expected to have created one on first contact.
func (r *SessionRepo) LatestByDevice(ctx context.Context, deviceAddress string) (*model.Session, error) {
	const q = "SELECT " + sessionColumns + " FROM states WHERE device_address = ? ORDER BY state_id DESC LIMIT 1"
	s, err := scanSession(r.db.QueryRowContext(ctx, q, deviceAddress))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveSession
	}
	return s, err
}

// Update persists step, order, amount and payment address in a single
// statement so the four fields change together or not at all.  The
// update is guarded by an optimistic check of the step the caller read:
// if the stored step already moved on, nothing is written and
// ErrStaleSession is returned.
func (r *SessionRepo) Update(ctx context.Context, s *model.Session, expected model.Step) error {
	orderJSON, err := json.Marshal(s.Order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	const q = "UPDATE states SET step = ?, `order` = ?, amount = ?, address = ? WHERE state_id = ? AND step = ?"
	result, err := r.db.ExecContext(ctx, q,
		string(s.Step), string(orderJSON), s.Amount, s.PaymentAddress, s.ID, string(expected))
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleSession
	}
	return nil
}

// MarkPaid records the paying unit and the payment timestamp and moves
// the session to unconfirmed_payment.  The pay_date IS NULL guard makes
// redelivery of the same ledger event a no-op: the returned bool is
// false when the payment was already recorded (or the session was
// cancelled in the meantime) and nothing was changed.
func (r *SessionRepo) MarkPaid(ctx context.Context, sessionID uint64, unit string, at time.Time) (bool, error) {
	const q = "UPDATE states SET pay_date = ?, unit = ?, step = ? WHERE state_id = ? AND pay_date IS NULL AND cancel_date IS NULL"
	result, err := r.db.ExecContext(ctx, q, at.UTC(), unit, string(model.StepUnconfirmedPayment), sessionID)
	if err != nil {
		return false, fmt.Errorf("mark paid: %w", err)
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// MarkCancelled records the cancellation timestamp.  Only unpaid,
// not-yet-cancelled sessions are affected, so repeated cancellation and
// a cancellation racing a payment are both safe.
func (r *SessionRepo) MarkCancelled(ctx context.Context, sessionID uint64, at time.Time) (bool, error) {
	const q = "UPDATE states SET cancel_date = ? WHERE state_id = ? AND cancel_date IS NULL AND pay_date IS NULL"
	result, err := r.db.ExecContext(ctx, q, at.UTC(), sessionID)
	if err != nil {
		return false, fmt.Errorf("mark cancelled: %w", err)
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// MarkConfirmed records the confirmation timestamp and moves the session
// to its terminal step (done or doublespend).  Already-confirmed
// sessions are skipped, making duplicate finalization events harmless.
func (r *SessionRepo) MarkConfirmed(ctx context.Context, sessionID uint64, step model.Step, at time.Time) (bool, error) {
	if step != model.StepDone && step != model.StepDoublespend {
		return false, fmt.Errorf("%w: %q is not a terminal step", ErrInvalidStep, step)
	}
	const q = "UPDATE states SET confirmation_date = ?, step = ? WHERE state_id = ? AND confirmation_date IS NULL"
	result, err := r.db.ExecContext(ctx, q, at.UTC(), string(step), sessionID)
	if err != nil {
		return false, fmt.Errorf("mark confirmed: %w", err)
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// ListRecent returns the newest sessions across all devices, newest
// first.  Used by the operator API to inspect order history.
func (r *SessionRepo) ListRecent(ctx context.Context, limit int) ([]model.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = "SELECT " + sessionColumns + " FROM states ORDER BY state_id DESC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]model.Session, 0, limit)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSession maps one states row onto a model.Session, validating the
// stored step against the known enumeration.
func scanSession(row rowScanner) (*model.Session, error) {
	var (
		s         model.Session
		step      string
		orderJSON string
		amount    sql.NullInt64
		address   sql.NullString
		unit      sql.NullString
		payDate   sql.NullTime
		confDate  sql.NullTime
		cancDate  sql.NullTime
	)
	err := row.Scan(&s.ID, &s.DeviceAddress, &step, &orderJSON,
		&amount, &address, &unit, &payDate, &confDate, &cancDate, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Step = model.Step(step)
	if !s.Step.Valid() {
		return nil, fmt.Errorf("%w: %q on session %d", ErrInvalidStep, step, s.ID)
	}
	if err := json.Unmarshal([]byte(orderJSON), &s.Order); err != nil {
		return nil, fmt.Errorf("unmarshal order of session %d: %w", s.ID, err)
	}
	if amount.Valid {
		a := amount.Int64
		s.Amount = &a
	}
	if address.Valid {
		addr := address.String
		s.PaymentAddress = &addr
	}
	if unit.Valid {
		u := unit.String
		s.PaymentUnit = &u
	}
	if payDate.Valid {
		t := payDate.Time.UTC()
		s.PaidAt = &t
	}
	if confDate.Valid {
		t := confDate.Time.UTC()
		s.ConfirmedAt = &t
	}
	if cancDate.Valid {
		t := cancDate.Time.UTC()
		s.CancelledAt = &t
	}
	return &s, nil
}
