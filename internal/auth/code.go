package auth

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// NewConfirmationCode generates a fresh opaque confirmation code. Codes are
// per-user, regenerated at creation and never reused across users.
func NewConfirmationCode() string {
	return uuid.New().String()
}

// HashConfirmationCode creates a bcrypt hash of the code for storage. Only the
// hash is persisted; the plaintext code goes out by email.
func HashConfirmationCode(code string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// VerifyConfirmationCode checks a presented code against the stored hash.
func VerifyConfirmationCode(hash, code string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
}
