// Package keys manages the device key file: the permanent device
// private key plus the rotating temporary key pair used by the pairing
// transport.  Keys are generated on first run and stored as base64 JSON.
package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
)

const keySize = 32

// DeviceKeys holds the raw key material read from or written to the
// keys file.
type DeviceKeys struct {
	PermanentPrivKey []byte
	TempPrivKey      []byte
	PrevTempPrivKey  []byte
}

type keysFile struct {
	PermanentPrivKey string `json:"permanent_priv_key"`
	TempPrivKey      string `json:"temp_priv_key"`
	PrevTempPrivKey  string `json:"prev_temp_priv_key"`
}

// LoadOrCreate reads the keys file at path, generating and persisting
// fresh keys when the file does not exist yet.
func LoadOrCreate(path string) (*DeviceKeys, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		k, genErr := generate()
		if genErr != nil {
			return nil, genErr
		}
		if saveErr := k.Save(path); saveErr != nil {
			return nil, saveErr
		}
		return k, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}
	var f keysFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse keys file: %w", err)
	}
	k := &DeviceKeys{}
	if k.PermanentPrivKey, err = base64.StdEncoding.DecodeString(f.PermanentPrivKey); err != nil {
		return nil, fmt.Errorf("decode permanent key: %w", err)
	}
	if k.TempPrivKey, err = base64.StdEncoding.DecodeString(f.TempPrivKey); err != nil {
		return nil, fmt.Errorf("decode temp key: %w", err)
	}
	if k.PrevTempPrivKey, err = base64.StdEncoding.DecodeString(f.PrevTempPrivKey); err != nil {
		return nil, fmt.Errorf("decode prev temp key: %w", err)
	}
	return k, nil
}

// Save writes the key material to path, world-unreadable.
func (k *DeviceKeys) Save(path string) error {
	f := keysFile{
		PermanentPrivKey: base64.StdEncoding.EncodeToString(k.PermanentPrivKey),
		TempPrivKey:      base64.StdEncoding.EncodeToString(k.TempPrivKey),
		PrevTempPrivKey:  base64.StdEncoding.EncodeToString(k.PrevTempPrivKey),
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write keys file: %w", err)
	}
	return nil
}

// RotateTemp replaces the temporary key pair and persists the file.
// The pairing transport calls this when it rotates session keys.
func (k *DeviceKeys) RotateTemp(path string, newTemp, newPrevTemp []byte) error {
	k.TempPrivKey = newTemp
	k.PrevTempPrivKey = newPrevTemp
	return k.Save(path)
}

// PubKey derives the printable device public key used in the pairing
// code.  The real elliptic-curve derivation lives in the transport; this
// stable digest stands in for logging and display.
func (k *DeviceKeys) PubKey() string {
	sum := sha256.Sum256(k.PermanentPrivKey)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func generate() (*DeviceKeys, error) {
	k := &DeviceKeys{
		PermanentPrivKey: make([]byte, keySize),
		TempPrivKey:      make([]byte, keySize),
		PrevTempPrivKey:  make([]byte, keySize),
	}
	for _, b := range [][]byte{k.PermanentPrivKey, k.TempPrivKey, k.PrevTempPrivKey} {
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate device keys: %w", err)
		}
	}
	return k, nil
}
