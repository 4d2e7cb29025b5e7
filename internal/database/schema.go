package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for the tables the merchant owns.  Statements are
// idempotent so the bot can run them on every startup.  The outputs and
// units projections belong to the ledger monitor; they are created here
// too so a fresh development database works out of the box, but the
// merchant only ever reads them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS states (
		state_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		device_address VARCHAR(64) NOT NULL,
		step VARCHAR(40) NOT NULL,
		` + "`order`" + ` TEXT NOT NULL,
		amount BIGINT NULL,
		address VARCHAR(64) NULL,
		unit CHAR(44) NULL,
		pay_date DATETIME NULL,
		confirmation_date DATETIME NULL,
		cancel_date DATETIME NULL,
		creation_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_states_device (device_address, state_id),
		KEY idx_states_address (address),
		KEY idx_states_unit (unit)
	)`,
	`CREATE TABLE IF NOT EXISTS pairing_secrets (
		pairing_secret VARCHAR(64) NOT NULL PRIMARY KEY,
		is_permanent TINYINT NOT NULL DEFAULT 0,
		expiry_date DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		wallet CHAR(44) NOT NULL PRIMARY KEY,
		xpub VARCHAR(130) NOT NULL,
		creation_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_addresses (
		address_index BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		wallet CHAR(44) NOT NULL,
		address VARCHAR(64) NOT NULL,
		creation_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_wallet_addresses_wallet (wallet)
	)`,
	`CREATE TABLE IF NOT EXISTS outputs (
		unit CHAR(44) NOT NULL,
		address VARCHAR(64) NOT NULL,
		amount BIGINT NOT NULL,
		asset CHAR(44) NULL,
		KEY idx_outputs_unit (unit),
		KEY idx_outputs_address (address)
	)`,
	`CREATE TABLE IF NOT EXISTS units (
		unit CHAR(44) NOT NULL PRIMARY KEY,
		sequence VARCHAR(16) NOT NULL DEFAULT 'good'
	)`,
}

// EnsureSchema creates any missing tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
