package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PairingRepo stores the pairing secrets remote devices use to pair with
// the bot.  The merchant registers one permanent secret at startup.
type PairingRepo struct {
	db *sql.DB
}

// NewPairingRepo returns a new PairingRepo bound to the given database.
func NewPairingRepo(db *sql.DB) *PairingRepo { return &PairingRepo{db: db} }

// EnsurePermanentSecret registers the permanent pairing secret,
// tolerating the row already being present from a previous run.
func (r *PairingRepo) EnsurePermanentSecret(ctx context.Context, secret string) error {
	const q = "INSERT IGNORE INTO pairing_secrets (pairing_secret, is_permanent, expiry_date) VALUES (?, 1, '2035-01-01')"
	if _, err := r.db.ExecContext(ctx, q, secret); err != nil {
		return fmt.Errorf("register pairing secret: %w", err)
	}
	return nil
}
