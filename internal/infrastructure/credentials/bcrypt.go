package credentials

import (
	"fmt"

	"github.com/hilthontt/huddle/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the BCRYPT_SALT_ROUNDS default.
	DefaultCost = 10

	// bcrypt ignores everything past the 72nd byte; newer x/crypto releases
	// refuse such input instead.
	maxSecretBytes = 72
)

// BcryptVerifier implements domain.CredentialVerifier with bcrypt.
type BcryptVerifier struct{}

func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Hash generates a bcrypt digest of secret. A cost above bcrypt.MaxCost is a
// hashing failure.
func (v *BcryptVerifier) Hash(secret string, cost int) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(clamp(secret), cost)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrHashing, err)
	}
	return string(digest), nil
}

// Verify reports whether secret matches digest. A malformed digest is an
// error, a mismatch is not.
func (v *BcryptVerifier) Verify(secret, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), clamp(secret))
	switch err {
	case nil:
		return true, nil
	case bcrypt.ErrMismatchedHashAndPassword:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", domain.ErrVerification, err)
	}
}

func clamp(secret string) []byte {
	b := []byte(secret)
	if len(b) > maxSecretBytes {
		b = b[:maxSecretBytes]
	}
	return b
}
