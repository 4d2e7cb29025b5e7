package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jamesdwilson/byteball-merchant/internal/model"
)

// LedgerRepo reads the outputs and units projections that the ledger
// monitor maintains and joins them against the states table.  The
// merchant never writes these tables; it only discovers which sessions a
// batch of units pays and how those units were finalized.
type LedgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo returns a new LedgerRepo bound to the given database.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// UnpaidSessionPayments returns, for each unit in the batch, the base
// currency outputs that pay the receiving address of a session still
// awaiting payment.  Sessions with pay_date already set are excluded,
// which is what makes a redelivered "payment observed" batch a no-op for
// them.  Units paying no tracked address produce no rows.
func (r *LedgerRepo) UnpaidSessionPayments(ctx context.Context, units []string) ([]model.ObservedPayment, error) {
	if len(units) == 0 {
		return nil, nil
	}
	q := `SELECT states.state_id, states.device_address, outputs.unit, states.amount, outputs.amount
	      FROM outputs
	      JOIN states ON states.address = outputs.address
	      WHERE outputs.unit IN (` + placeholders(len(units)) + `)
	        AND outputs.asset IS NULL
	        AND states.pay_date IS NULL`
	rows, err := r.db.QueryContext(ctx, q, unitArgs(units)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []model.ObservedPayment
	for rows.Next() {
		var p model.ObservedPayment
		if err := rows.Scan(&p.SessionID, &p.DeviceAddress, &p.Unit, &p.ExpectedAmount, &p.PaidAmount); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

// SessionFinality returns the finality outcome for each unit in the
// batch that paid a session whose confirmation is still pending.
// Already-confirmed sessions produce no rows, so duplicate finalization
// batches are harmless.
func (r *LedgerRepo) SessionFinality(ctx context.Context, units []string) ([]model.PaymentFinality, error) {
	if len(units) == 0 {
		return nil, nil
	}
	q := `SELECT states.state_id, states.device_address, units.unit, units.sequence
	      FROM states
	      JOIN units ON units.unit = states.unit
	      WHERE states.unit IN (` + placeholders(len(units)) + `)
	        AND states.confirmation_date IS NULL`
	rows, err := r.db.QueryContext(ctx, q, unitArgs(units)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var finalities []model.PaymentFinality
	for rows.Next() {
		var f model.PaymentFinality
		if err := rows.Scan(&f.SessionID, &f.DeviceAddress, &f.Unit, &f.Sequence); err != nil {
			return nil, err
		}
		finalities = append(finalities, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return finalities, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func unitArgs(units []string) []any {
	args := make([]any, 0, len(units))
	for _, u := range units {
		args = append(args, u)
	}
	return args
}
