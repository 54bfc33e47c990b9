package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/mkalvans/passvault/internal/common"
)

// logIn is the locked-state command loop. The vault opens only after both
// the master password and an authenticator code check out.
func (a *App) logIn(ctx context.Context) error {
	a.println("Vault locked. Commands: unlock, forgot, exit")

	for {
		cmd, err := getSimpleText(a.reader, "passvault (locked)", a.out)
		if err != nil {
			return err
		}

		switch strings.ToLower(cmd) {
		case "":
			continue

		case "help":
			a.println("Commands: unlock, forgot (reset the master password by e-mail), exit")

		case "unlock":
			ok, err := a.tryUnlock(ctx)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}

		case "forgot":
			if err := a.forgotPassword(ctx); err != nil {
				if errors.Is(err, errAborted) {
					a.println("Password reset cancelled.")
					continue
				}
				return err
			}
			a.println("Master password replaced. Unlock with the new password.")

		case "exit", "quit":
			a.println("Bye!")
			return errAborted

		default:
			a.println("Unknown command:", cmd)
		}
	}
}

// tryUnlock reads both factors and attempts one unlock. A wrong factor is
// reported to the user and returns ok=false; only I/O failures propagate.
func (a *App) tryUnlock(ctx context.Context) (bool, error) {
	pw, err := getPassword(a.out, "Master password: ")
	if err != nil {
		return false, err
	}
	code, err := getSimpleText(a.reader, "Authenticator code", a.out)
	if err != nil {
		common.WipeByteArray(pw)
		return false, err
	}

	err = a.manager.Unlock(string(pw), code)
	common.WipeByteArray(pw)

	switch {
	case err == nil:
		a.println("Vault unlocked.")
		return true, nil
	case errors.Is(err, common.ErrInvalidPassword):
		a.println("Wrong master password.")
		return false, nil
	case errors.Is(err, common.ErrInvalidOTP):
		a.println("Wrong authenticator code.")
		return false, nil
	default:
		return false, err
	}
}

// forgotPassword re-proves control of the registered address via a fresh
// security token, then replaces the master password. The cipher key never
// changes, so stored records stay readable.
func (a *App) forgotPassword(ctx context.Context) error {
	email, err := a.manager.UserEmail()
	if err != nil {
		return err
	}

	if err := a.proveEmail(ctx, email); err != nil {
		return err
	}
	return a.collectNewPassword(ctx)
}

// reset2FA re-proves the registered address, rotates the OTP secret, and
// walks through a fresh authenticator confirmation. The old secret stops
// verifying the moment the rotation happens.
func (a *App) reset2FA(ctx context.Context) error {
	email, err := a.manager.UserEmail()
	if err != nil {
		return err
	}

	if err := a.proveEmail(ctx, email); err != nil {
		return err
	}
	if err := a.manager.Reset2FA(); err != nil {
		return err
	}
	return a.confirmOTP(ctx)
}
