// Package password implements the password authority: the master password
// strength policy, salted hashing, and verification against the stored hash.
package password

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"

	"github.com/mkalvans/passvault/internal/common"
	"github.com/mkalvans/passvault/internal/secretstore"
)

// Policy bounds, inclusive. The upper bound is a compatibility limit
// carried over from bcrypt-era stores.
const (
	MinLength = 8
	MaxLength = 72
)

// Symbols is the punctuation set the policy accepts.
const Symbols = "#?!@$%^&*-"

const saltSize = 32

// Authority validates, hashes, and checks the master password. The salt and
// the hash live in the secret store; the authority itself is stateless.
type Authority struct {
	store secretstore.Store
}

func NewAuthority(store secretstore.Store) *Authority {
	return &Authority{store: store}
}

// Validate reports whether candidate meets the policy: 8–72 characters with
// at least one uppercase letter, one lowercase letter, one digit, and one
// symbol from Symbols. Pure predicate, no side effects.
func Validate(candidate string) bool {
	if len(candidate) < MinLength || len(candidate) > MaxLength {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(Symbols, r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Hash derives a salted hash of candidate with argon2id. Same candidate and
// salt always produce the same hash.
func Hash(candidate string, salt []byte) []byte {
	return argon2.IDKey([]byte(candidate), salt, 1, 64*1024, 4, 32)
}

// GenerateSalt returns fresh random salt material.
func GenerateSalt() []byte {
	return common.GenerateRandByteArray(saltSize)
}

// CreateSalt generates a new salt and persists it, overwriting any prior one.
func (a *Authority) CreateSalt() error {
	salt := GenerateSalt()
	if err := a.store.Set(secretstore.NameSalt, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return fmt.Errorf("failed to persist salt: %w", err)
	}
	return nil
}

// Set validates candidate against the policy, hashes it with the stored
// salt, and persists the hash, overwriting any prior one. Returns
// common.ErrPolicyViolation when the candidate fails validation.
func (a *Authority) Set(candidate string) error {
	if !Validate(candidate) {
		return common.ErrPolicyViolation
	}

	salt, err := a.salt()
	if err != nil {
		return err
	}

	hash := Hash(candidate, salt)
	if err := a.store.Set(secretstore.NamePassword, base64.StdEncoding.EncodeToString(hash)); err != nil {
		return fmt.Errorf("failed to persist password hash: %w", err)
	}
	return nil
}

// Check hashes candidate with the stored salt and compares it to the stored
// hash in constant time. It returns false, never an error, when no hash or
// salt is stored or when the stored values are unreadable.
func (a *Authority) Check(candidate string) bool {
	salt, err := a.salt()
	if err != nil {
		return false
	}

	stored, err := a.store.Get(secretstore.NamePassword)
	if err != nil {
		return false
	}
	storedHash, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(Hash(candidate, salt), storedHash) == 1
}

// HashExists reports whether a master password hash is stored. Used for
// first-run detection.
func (a *Authority) HashExists() (bool, error) {
	_, err := a.store.Get(secretstore.NamePassword)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *Authority) salt() ([]byte, error) {
	stored, err := a.store.Get(secretstore.NameSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to read salt: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return nil, fmt.Errorf("stored salt is unreadable: %w", err)
	}
	return salt, nil
}
