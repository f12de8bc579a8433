package service

import "tokengate/internal/common/crypto"

// PasswordVerifier answers a single yes/no question and never reports why
// a comparison failed.
type PasswordVerifier struct {
	hasher crypto.PasswordHasher
}

func NewPasswordVerifier(hasher crypto.PasswordHasher) *PasswordVerifier {
	return &PasswordVerifier{hasher: hasher}
}

func (v *PasswordVerifier) IsValid(candidate, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return v.hasher.Compare(storedHash, candidate) == nil
}
