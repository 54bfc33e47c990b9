// Package cryptox implements the symmetric crypto engine that protects
// stored credentials. The engine is ephemeral: it holds a cipher derived
// from persisted key material and must be re-initialized whenever the key
// rotates or the process restarts.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/mkalvans/passvault/internal/common"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// GenerateKey returns fresh random key material for the engine.
func GenerateKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

// EncodeKey converts raw key material to the string form stored in the
// secret store. DecodeKey is its inverse.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKey parses stored key material. Returns common.ErrInvalidKey on
// malformed input.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
	}
	return key, nil
}

// Engine encrypts and decrypts credential payloads with AES-GCM.
// The zero value is unusable until Initialize succeeds.
type Engine struct {
	aead cipher.AEAD
}

func NewEngine() *Engine {
	return &Engine{}
}

// Initialize binds the engine to a key, replacing any previous binding.
// The key must be 16, 24, or 32 bytes; anything else is common.ErrInvalidKey.
func (e *Engine) Initialize(key []byte) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
	}
	e.aead = aead
	return nil
}

// Initialized reports whether the engine is bound to a key.
func (e *Engine) Initialized() bool {
	return e.aead != nil
}

// Encrypt seals the plaintext with a fresh random nonce and returns
// base64(nonce || ciphertext). Using the engine before Initialize is a
// lifecycle bug and fails with common.ErrEngineNotInitialized.
func (e *Engine) Encrypt(plaintext string) (string, error) {
	if e.aead == nil {
		return "", common.ErrEngineNotInitialized
	}

	nonce := common.GenerateRandByteArray(e.aead.NonceSize())
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Tampered ciphertext, a wrong key, or malformed
// input all fail with common.ErrDecryptionFailed.
func (e *Engine) Decrypt(ciphertext string) (string, error) {
	if e.aead == nil {
		return "", common.ErrEngineNotInitialized
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	if len(sealed) < e.aead.NonceSize() {
		return "", common.ErrDecryptionFailed
	}

	nonce, ct := sealed[:e.aead.NonceSize()], sealed[e.aead.NonceSize():]
	plaintext, err := e.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}
