// Package account implements the account lifecycle controller. It
// orchestrates the crypto engine, password authority, OTP authority, and
// security-token issuer across account creation, unlock, resets, and
// deletion, and owns the invariant that either all account secrets exist
// or none do.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkalvans/passvault/internal/common"
	"github.com/mkalvans/passvault/internal/cryptox"
	"github.com/mkalvans/passvault/internal/logging"
	"github.com/mkalvans/passvault/internal/otpauth"
	"github.com/mkalvans/passvault/internal/password"
	"github.com/mkalvans/passvault/internal/secretstore"
	"github.com/mkalvans/passvault/internal/token"
)

// State is the account's position in its lifecycle.
type State string

const (
	// StateNoAccount means no master password hash exists yet.
	StateNoAccount State = "no_account"
	// StateProvisioning covers the multi-step account creation window.
	StateProvisioning State = "provisioning"
	// StateActive means provisioning completed; the account is usable.
	StateActive State = "active"
)

// Manager is the account lifecycle controller. All mutations of account
// secrets go through it; the shell never touches the secret store directly.
type Manager struct {
	store  secretstore.Store
	crypt  *cryptox.Engine
	pass   *password.Authority
	otp    *otpauth.Authority
	tokens *token.Issuer
	log    logging.Logger

	qrPath string
	issuer string

	state                State
	registrationComplete bool
}

// NewManager wires the controller to its collaborators. qrPath is the
// well-known location of the provisioning QR artifact; issuer names this
// installation in authenticator apps.
func NewManager(store secretstore.Store, sender token.Sender, log logging.Logger, qrPath, issuer string, tokenTTL int) *Manager {
	return &Manager{
		store:  store,
		crypt:  cryptox.NewEngine(),
		pass:   password.NewAuthority(store),
		otp:    otpauth.NewAuthority(store),
		tokens: token.NewIssuer(sender, tokenTTL),
		log:    log,
		qrPath: qrPath,
		issuer: issuer,

		state:                StateNoAccount,
		registrationComplete: true,
	}
}

// Tokens exposes the security-token issuer. The shell drives issuing,
// verification, and the per-second countdown through it.
func (m *Manager) Tokens() *token.Issuer { return m.tokens }

// State returns the current lifecycle state.
func (m *Manager) State() State { return m.state }

// RegistrationComplete reports whether the last provisioning attempt
// finished. It is false only between account-secret creation and the
// confirming OTP code.
func (m *Manager) RegistrationComplete() bool { return m.registrationComplete }

// FirstRun reports whether no account exists yet (no password hash stored).
func (m *Manager) FirstRun() (bool, error) {
	exists, err := m.pass.HashExists()
	if err != nil {
		return false, fmt.Errorf("first-run detection failed: %w", err)
	}
	return !exists, nil
}

// Start performs first-run detection and either begins provisioning a new
// account or loads the existing one. It returns the resulting state.
func (m *Manager) Start(ctx context.Context) (State, error) {
	firstRun, err := m.FirstRun()
	if err != nil {
		return m.state, err
	}

	if firstRun {
		m.log.Info(ctx, "no account found, starting provisioning")
		if err := m.InitializeNewAccount(); err != nil {
			return m.state, err
		}
		return m.state, nil
	}

	m.log.Info(ctx, "account found, loading")
	if err := m.LoadAccount(); err != nil {
		return m.state, err
	}
	return m.state, nil
}

// InitializeNewAccount creates the salt, cipher key, and OTP secret for a
// new account, derives the in-memory engines, and opens the provisioning
// window (registration incomplete until the OTP setup is confirmed).
func (m *Manager) InitializeNewAccount() error {
	if err := m.pass.CreateSalt(); err != nil {
		return err
	}

	key := cryptox.GenerateKey()
	if err := m.store.Set(secretstore.NameCipherKey, cryptox.EncodeKey(key)); err != nil {
		return fmt.Errorf("failed to persist cipher key: %w", err)
	}
	if err := m.crypt.Initialize(key); err != nil {
		return err
	}

	if err := m.otp.CreateSecret(); err != nil {
		return err
	}

	m.state = StateProvisioning
	m.registrationComplete = false
	return nil
}

// LoadAccount re-derives the crypto engine and OTP verifier from persisted
// secrets. No secrets are regenerated. Used on process start when an
// account already exists.
func (m *Manager) LoadAccount() error {
	stored, err := m.store.Get(secretstore.NameCipherKey)
	if err != nil {
		return fmt.Errorf("failed to read cipher key: %w", err)
	}
	key, err := cryptox.DecodeKey(stored)
	if err != nil {
		return err
	}
	if err := m.crypt.Initialize(key); err != nil {
		return err
	}

	if err := m.otp.InitializeVerifier(); err != nil {
		return err
	}

	m.state = StateActive
	m.registrationComplete = true
	return nil
}

// SetUserEmail records the registered recovery address. Called after the
// address has been proven via the security-token protocol.
func (m *Manager) SetUserEmail(email string) error {
	if err := m.store.Set(secretstore.NameUserEmail, email); err != nil {
		return fmt.Errorf("failed to persist user email: %w", err)
	}
	return nil
}

// UserEmail returns the registered recovery address.
func (m *Manager) UserEmail() (string, error) {
	email, err := m.store.Get(secretstore.NameUserEmail)
	if err != nil {
		return "", fmt.Errorf("failed to read user email: %w", err)
	}
	return email, nil
}

// SetPassword validates and stores the master password. candidate and
// confirmation must match (common.ErrPasswordMismatch) and satisfy the
// policy (common.ErrPolicyViolation).
func (m *Manager) SetPassword(candidate, confirmation string) error {
	if candidate != confirmation {
		return common.ErrPasswordMismatch
	}
	return m.pass.Set(candidate)
}

// SetupOTP rotates the OTP shared secret and writes the provisioning QR
// artifact for the presentation layer. The old secret, if any, stops
// verifying immediately.
func (m *Manager) SetupOTP() error {
	if err := m.otp.RotateSecret(); err != nil {
		return err
	}

	email, err := m.UserEmail()
	if err != nil {
		return err
	}
	return m.otp.WriteQR(m.qrPath, email, m.issuer)
}

// ConfirmOTPSetup verifies a code against the freshly generated secret.
// Success completes provisioning: the registration flag flips to true and
// the account becomes active. The QR artifact is removed once confirmed.
func (m *Manager) ConfirmOTPSetup(code string) error {
	if !m.otp.Initialized() {
		return common.ErrVerifierNotInitialized
	}
	if !m.otp.Verify(code) {
		return common.ErrInvalidOTP
	}

	m.registrationComplete = true
	m.state = StateActive

	if err := otpauth.DeleteQR(m.qrPath); err != nil {
		m.log.Warn(context.Background(), "failed to remove qr artifact", "error", err)
	}
	return nil
}

// Unlock grants access to an existing account: the password check runs
// first, then the OTP check. Both must pass. The failures are distinct
// errors so the shell can tell the user which factor was wrong.
func (m *Manager) Unlock(passwordCandidate, otpCode string) error {
	if !m.crypt.Initialized() {
		return common.ErrEngineNotInitialized
	}
	if !m.otp.Initialized() {
		return common.ErrVerifierNotInitialized
	}

	if !m.pass.Check(passwordCandidate) {
		return common.ErrInvalidPassword
	}
	if !m.otp.Verify(otpCode) {
		return common.ErrInvalidOTP
	}
	return nil
}

// ResetPassword replaces the master password after the caller has re-proved
// identity via the security-token protocol. The cipher key is untouched, so
// stored records remain readable.
func (m *Manager) ResetPassword(candidate, confirmation string) error {
	return m.SetPassword(candidate, confirmation)
}

// Reset2FA rotates the OTP secret after identity re-proof and surfaces a
// new QR. The reset is complete only once ConfirmOTPSetup succeeds.
func (m *Manager) Reset2FA() error {
	return m.SetupOTP()
}

// Encrypt seals a credential payload for the record store.
func (m *Manager) Encrypt(plaintext string) (string, error) {
	return m.crypt.Encrypt(plaintext)
}

// Decrypt opens a credential payload from the record store.
func (m *Manager) Decrypt(ciphertext string) (string, error) {
	return m.crypt.Decrypt(ciphertext)
}

// DeleteAccount removes all account secrets and the QR artifact. Secrets
// that are already absent are skipped; any other failure is collected and
// reported after the sweep, so one bad entry does not strand the rest.
// Irreversible.
func (m *Manager) DeleteAccount() error {
	var errs []error
	for _, name := range secretstore.AllNames {
		if err := m.store.Delete(name); err != nil && !errors.Is(err, common.ErrorNotFound) {
			errs = append(errs, fmt.Errorf("secret %q: %w", name, err))
		}
	}
	if err := otpauth.DeleteQR(m.qrPath); err != nil {
		errs = append(errs, err)
	}

	m.state = StateNoAccount
	m.registrationComplete = true
	return errors.Join(errs...)
}

// FinalizeOrRollback is the shutdown guard. If provisioning never
// completed, every secret created during the attempt is deleted so a
// half-provisioned account is never left behind. Invoked by the owning
// shell on both normal and abnormal shutdown paths.
func (m *Manager) FinalizeOrRollback(ctx context.Context) error {
	if m.registrationComplete {
		return nil
	}

	m.log.Warn(ctx, "provisioning incomplete, rolling back account secrets")
	return m.DeleteAccount()
}
