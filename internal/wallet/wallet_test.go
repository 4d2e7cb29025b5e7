package wallet

import (
	"context"
	"errors"
	"testing"
)

type memStore struct {
	id      string
	xpub    string
	exists  bool
	nextIdx uint64
	issued  []string
}

func (m *memStore) Wallet(context.Context) (string, bool, error) {
	return m.id, m.exists, nil
}

func (m *memStore) CreateWallet(_ context.Context, walletID, xpub string) error {
	m.id, m.xpub, m.exists = walletID, xpub, true
	return nil
}

func (m *memStore) IssueAddress(_ context.Context, _ string, derive func(uint64) string) (string, error) {
	m.nextIdx++
	addr := derive(m.nextIdx)
	m.issued = append(m.issued, addr)
	return addr, nil
}

const testXpub = "xpub-test-0001"

func TestIssueAddressRequiresWallet(t *testing.T) {
	svc := New(&memStore{}, testXpub)
	if err := svc.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.IssueAddress(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCreateIfAbsent(t *testing.T) {
	store := &memStore{}
	svc := New(store, testXpub)

	id, err := svc.CreateIfAbsent(context.Background())
	if err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}
	if id == "" || !store.exists || store.xpub != testXpub {
		t.Fatalf("wallet not persisted: id=%q store=%+v", id, store)
	}
	if len(id) != 44 {
		t.Fatalf("wallet id must be 44 chars, got %d (%q)", len(id), id)
	}

	// Second call is a no-op returning the same identity.
	again, err := svc.CreateIfAbsent(context.Background())
	if err != nil || again != id {
		t.Fatalf("repeat creation: id=%q err=%v", again, err)
	}

	got, ok := svc.ID()
	if !ok || got != id {
		t.Fatalf("ID() = %q, %v", got, ok)
	}
}

func TestResolvePicksUpExistingWallet(t *testing.T) {
	store := &memStore{id: "WALLET-PRIOR", exists: true}
	svc := New(store, testXpub)
	if err := svc.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	id, ok := svc.ID()
	if !ok || id != "WALLET-PRIOR" {
		t.Fatalf("Resolve did not adopt existing wallet: %q, %v", id, ok)
	}
}

func TestIssueAddressUniquePerIndex(t *testing.T) {
	store := &memStore{}
	svc := New(store, testXpub)
	if _, err := svc.CreateIfAbsent(context.Background()); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		addr, err := svc.IssueAddress(context.Background())
		if err != nil {
			t.Fatalf("IssueAddress #%d: %v", i+1, err)
		}
		if len(addr) != 32 {
			t.Fatalf("address must be 32 chars, got %d (%q)", len(addr), addr)
		}
		if seen[addr] {
			t.Fatalf("address %q issued twice", addr)
		}
		seen[addr] = true
	}
}

func TestDerivationIsDeterministic(t *testing.T) {
	if deriveWalletID(testXpub) != deriveWalletID(testXpub) {
		t.Fatal("wallet id derivation must be deterministic")
	}
	if deriveAddress(testXpub, 7) != deriveAddress(testXpub, 7) {
		t.Fatal("address derivation must be deterministic")
	}
	if deriveAddress(testXpub, 7) == deriveAddress(testXpub, 8) {
		t.Fatal("different indexes must yield different addresses")
	}
	if deriveAddress(testXpub, 7) == deriveAddress("xpub-other", 7) {
		t.Fatal("different xpubs must yield different addresses")
	}
}
