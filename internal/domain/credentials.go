package domain

// CredentialVerifier is the one-way hashing capability protecting room passwords.
//
// Hash returns an error wrapping ErrHashing on internal failure. Verify returns
// false for a well formed mismatch and an error wrapping ErrVerification only
// when the comparison itself could not be performed.
type CredentialVerifier interface {
	Hash(secret string, cost int) (string, error)
	Verify(secret, digest string) (bool, error)
}
