package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WalletRepo persists the bot's single wallet row and the receiving
// addresses issued from it.  Address rows are append-only; their
// auto-increment id doubles as the derivation index, which guarantees an
// address is never issued twice.
type WalletRepo struct {
	db *sql.DB
}

// NewWalletRepo returns a new WalletRepo bound to the given database.
func NewWalletRepo(db *sql.DB) *WalletRepo { return &WalletRepo{db: db} }

// ErrMultipleWallets indicates the wallets table holds more than one
// row, which the single-wallet merchant cannot recover from.
var ErrMultipleWallets = errors.New("more than one wallet")

// Wallet returns the stored wallet identity.  The second return value is
// false when no wallet has been created yet.
func (r *WalletRepo) Wallet(ctx context.Context) (string, bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT wallet FROM wallets")
	if err != nil {
		return "", false, err
	}
	defer rows.Close()
	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return "", false, err
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return "", false, err
	}
	switch len(wallets) {
	case 0:
		return "", false, nil
	case 1:
		return wallets[0], true, nil
	default:
		return "", false, ErrMultipleWallets
	}
}

// CreateWallet inserts the wallet row.  It fails if a wallet already
// exists; callers should check Wallet first.
func (r *WalletRepo) CreateWallet(ctx context.Context, walletID, xpub string) error {
	const q = "INSERT INTO wallets (wallet, xpub) VALUES (?, ?)"
	if _, err := r.db.ExecContext(ctx, q, walletID, xpub); err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// IssueAddress reserves the next address index for the wallet inside a
// transaction, derives the address for it via the supplied function and
// stores the result.  The derive function must be pure so a retried
// transaction produces the same address for the same index.
func (r *WalletRepo) IssueAddress(ctx context.Context, walletID string, derive func(index uint64) string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"INSERT INTO wallet_addresses (wallet, address) VALUES (?, '')", walletID)
	if err != nil {
		return "", fmt.Errorf("reserve address index: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return "", err
	}
	address := derive(uint64(id))
	if _, err := tx.ExecContext(ctx,
		"UPDATE wallet_addresses SET address = ? WHERE address_index = ?", address, id); err != nil {
		return "", fmt.Errorf("store address: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return address, nil
}
