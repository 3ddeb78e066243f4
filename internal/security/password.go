// Package security holds password hashing and the random secrets handed to users.
package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	tempPasswordLength = 6
	tempPasswordChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	pinLength          = 4
	pinChars           = "0123456789"

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A malformed hash is an error,
// a plain mismatch is not.
func CheckPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// GenerateTempPassword returns a 6 character upper-case alphanumeric password.
func GenerateTempPassword() (string, error) {
	return randomString(tempPasswordLength, tempPasswordChars)
}

// GeneratePin returns the 4 digit release code given to whoever books a slot.
func GeneratePin() (string, error) {
	return randomString(pinLength, pinChars)
}

func randomString(n int, alphabet string) (string, error) {
	out := make([]byte, n)
	limit := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random value: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
