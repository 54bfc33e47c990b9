// Package otpauth implements the TOTP authority: shared-secret lifecycle,
// provisioning URI/QR generation, and time-windowed code verification
// (RFC 6238, 30-second step, default clock-skew tolerance).
package otpauth

import (
	"encoding/base32"
	"errors"
	"fmt"
	"image/png"
	"os"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/mkalvans/passvault/internal/common"
	"github.com/mkalvans/passvault/internal/secretstore"
)

// secretSize is the raw shared-secret length in bytes (160 bits, the
// conventional size for SHA-1 TOTP).
const secretSize = 20

// QRSize is the pixel size of the generated provisioning QR image.
const QRSize = 300

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Authority owns the persisted TOTP shared secret and an ephemeral verifier
// derived from it. The verifier must be re-derived (InitializeVerifier)
// whenever the secret rotates or the process restarts.
type Authority struct {
	store  secretstore.Store
	secret string
}

func NewAuthority(store secretstore.Store) *Authority {
	return &Authority{store: store}
}

// CreateSecret generates a fresh random base-32 shared secret, persists it,
// overwriting any existing one, and re-derives the verifier.
func (a *Authority) CreateSecret() error {
	secret := b32NoPadding.EncodeToString(common.GenerateRandByteArray(secretSize))
	if err := a.store.Set(secretstore.NameOTPSecret, secret); err != nil {
		return fmt.Errorf("failed to persist otp secret: %w", err)
	}
	a.secret = secret
	return nil
}

// InitializeVerifier derives the in-memory verifier from the persisted
// secret. Returns common.ErrNoSecret when none is stored.
func (a *Authority) InitializeVerifier() error {
	secret, err := a.store.Get(secretstore.NameOTPSecret)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrNoSecret
		}
		return fmt.Errorf("failed to read otp secret: %w", err)
	}
	a.secret = secret
	return nil
}

// Initialized reports whether the verifier is derived and usable.
func (a *Authority) Initialized() bool {
	return a.secret != ""
}

// Verify validates a time-based one-time code against the shared secret.
// Malformed, expired, or replay-window-missed codes return false; Verify
// never returns an error for attacker-controlled input. An uninitialized
// verifier also yields false; callers that care should check Initialized.
func (a *Authority) Verify(code string) bool {
	if a.secret == "" {
		return false
	}
	return totp.Validate(code, a.secret)
}

// RotateSecret deletes the current shared secret and creates a new one,
// forcing re-derivation of the verifier. Used for 2FA reset.
func (a *Authority) RotateSecret() error {
	if err := a.store.Delete(secretstore.NameOTPSecret); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("failed to delete otp secret: %w", err)
	}
	a.secret = ""
	return a.CreateSecret()
}

// ProvisioningURI builds the standard otpauth:// URI for the current shared
// secret. Returns common.ErrNoSecret when no secret exists.
func (a *Authority) ProvisioningURI(label, issuer string) (string, error) {
	key, err := a.provisioningKey(label, issuer)
	if err != nil {
		return "", err
	}
	return key.URL(), nil
}

// WriteQR renders the provisioning URI as a PNG at path. The artifact is a
// well-known file the presentation layer loads and displays.
func (a *Authority) WriteQR(path, label, issuer string) error {
	key, err := a.provisioningKey(label, issuer)
	if err != nil {
		return err
	}

	img, err := key.Image(QRSize, QRSize)
	if err != nil {
		return fmt.Errorf("failed to render qr image: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create qr file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode qr png: %w", err)
	}
	return nil
}

// DeleteQR removes the QR artifact if it exists. Absence is not an error.
func DeleteQR(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete qr file: %w", err)
	}
	return nil
}

func (a *Authority) provisioningKey(label, issuer string) (*otp.Key, error) {
	secret, err := a.store.Get(secretstore.NameOTPSecret)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNoSecret
		}
		return nil, fmt.Errorf("failed to read otp secret: %w", err)
	}

	raw, err := b32NoPadding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("stored otp secret is unreadable: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: label,
		Secret:      raw,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build provisioning key: %w", err)
	}
	return key, nil
}
