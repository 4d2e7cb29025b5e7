// Package wallet resolves the merchant's single wallet identity and
// issues fresh receiving addresses from it.  Address derivation here is
// a checksum-free stand-in: addresses are unique and deterministic per
// index, which is all the order flow needs — signing and ledger-side
// validation are handled entirely by external collaborators.
package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
)

// Store is the persistence surface the service needs.  It is implemented
// by repository.WalletRepo.
type Store interface {
	Wallet(ctx context.Context) (string, bool, error)
	CreateWallet(ctx context.Context, walletID, xpub string) error
	IssueAddress(ctx context.Context, walletID string, derive func(index uint64) string) (string, error)
}

// ErrNotConfigured is returned when an address is requested before the
// wallet has been created from the home device.
var ErrNotConfigured = errors.New("wallet not configured")

// Service holds the wallet identity resolved once at startup.  "Not yet
// configured" is an explicit absent state, reported by ID, rather than a
// sentinel value.
type Service struct {
	store Store
	xpub  string

	mu sync.RWMutex
	id string
	ok bool
}

// New returns a Service for the given extended public key.  Call Resolve
// before use.
func New(store Store, xpub string) *Service {
	return &Service{store: store, xpub: xpub}
}

// Resolve loads the wallet row if one exists.  Finding none is not an
// error: the shop simply answers "not set up yet" until the home device
// triggers creation.
func (s *Service) Resolve(ctx context.Context) error {
	id, ok, err := s.store.Wallet(ctx)
	if err != nil {
		return fmt.Errorf("resolve wallet: %w", err)
	}
	s.mu.Lock()
	s.id, s.ok = id, ok
	s.mu.Unlock()
	return nil
}

// ID returns the wallet identity and whether it has been configured.
func (s *Service) ID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, s.ok
}

// CreateIfAbsent creates the wallet from the configured xpub when none
// exists yet and returns the wallet identity either way.
func (s *Service) CreateIfAbsent(ctx context.Context) (string, error) {
	if id, ok := s.ID(); ok {
		return id, nil
	}
	id := deriveWalletID(s.xpub)
	if err := s.store.CreateWallet(ctx, id, s.xpub); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.id, s.ok = id, true
	s.mu.Unlock()
	return id, nil
}

// IssueAddress returns a receiving address never handed out before.
func (s *Service) IssueAddress(ctx context.Context) (string, error) {
	id, ok := s.ID()
	if !ok {
		return "", ErrNotConfigured
	}
	return s.store.IssueAddress(ctx, id, func(index uint64) string {
		return deriveAddress(s.xpub, index)
	})
}

// deriveWalletID hashes the xpub into a 44-character base64 identity,
// the shape wallet ids take on the ledger.
func deriveWalletID(xpub string) string {
	sum := sha256.Sum256([]byte("wallet:" + xpub))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// deriveAddress produces a 32-character base32 address from the xpub and
// the address index.
func deriveAddress(xpub string, index uint64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("address:%s:%d", xpub, index)))
	return base32.StdEncoding.EncodeToString(sum[:])[:32]
}
