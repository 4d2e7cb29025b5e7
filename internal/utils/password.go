package utils

import "golang.org/x/crypto/bcrypt"

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// The operator password reaches the service only as a configured hash;
// the service itself never hashes passwords.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
