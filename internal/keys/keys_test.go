package keys

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateGeneratesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")

	created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if len(created.PermanentPrivKey) != keySize || len(created.TempPrivKey) != keySize {
		t.Fatalf("unexpected key sizes: %d/%d", len(created.PermanentPrivKey), len(created.TempPrivKey))
	}

	loaded, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("second LoadOrCreate: %v", err)
	}
	if !bytes.Equal(created.PermanentPrivKey, loaded.PermanentPrivKey) {
		t.Fatal("permanent key must survive a reload")
	}
	if created.PubKey() != loaded.PubKey() {
		t.Fatal("pubkey must be stable across reloads")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("keys file must not be world-readable, got %v", info.Mode().Perm())
	}
}

func TestRotateTemp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	k, err := LoadOrCreate(path)
	if err != nil {
		t.Fatal(err)
	}
	oldTemp := append([]byte(nil), k.TempPrivKey...)

	newTemp := bytes.Repeat([]byte{1}, keySize)
	if err := k.RotateTemp(path, newTemp, oldTemp); err != nil {
		t.Fatalf("RotateTemp: %v", err)
	}

	reloaded, err := LoadOrCreate(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(reloaded.TempPrivKey, newTemp) {
		t.Fatal("rotated temp key not persisted")
	}
	if !bytes.Equal(reloaded.PrevTempPrivKey, oldTemp) {
		t.Fatal("previous temp key not persisted")
	}
}
