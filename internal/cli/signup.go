package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkalvans/passvault/internal/common"
	"github.com/mkalvans/passvault/internal/mail"
	"github.com/mkalvans/passvault/internal/password"
)

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// signUp walks a new user through provisioning: prove an e-mail address
// with a security token, choose a master password, then confirm the
// authenticator setup. Only after the final confirmation does the account
// become active; bailing out at any step triggers the rollback guard.
func (a *App) signUp(ctx context.Context) error {
	a.println("No account found. Let's create one.")
	a.println("You can type 'cancel' at any prompt to abort.")

	email, err := a.collectEmail(ctx)
	if err != nil {
		return err
	}
	if err := a.manager.SetUserEmail(email); err != nil {
		return err
	}

	if err := a.collectNewPassword(ctx); err != nil {
		return err
	}

	if err := a.manager.SetupOTP(); err != nil {
		return err
	}
	if err := a.confirmOTP(ctx); err != nil {
		return err
	}

	a.println("Account created. Welcome!")
	return nil
}

// collectEmail prompts for an e-mail address until a syntactically valid
// one is entered and proven via the token protocol.
func (a *App) collectEmail(ctx context.Context) (string, error) {
	for {
		email, err := getSimpleText(a.reader, "Enter your e-mail address", a.out)
		if err != nil {
			return "", err
		}
		if strings.EqualFold(email, "cancel") {
			return "", errAborted
		}
		if err := mail.ValidateAddress(email); err != nil {
			a.println(err.Error())
			continue
		}

		if err := a.proveEmail(ctx, email); err != nil {
			return "", err
		}
		return email, nil
	}
}

// proveEmail sends a security token to email and loops until the user
// enters the matching code. A failed delivery does not invalidate the
// token: the code may still arrive late, and 'resend' issues a fresh one.
func (a *App) proveEmail(ctx context.Context, email string) error {
	issue := func() {
		if _, err := a.manager.Tokens().Issue(email); err != nil {
			a.log.Error(ctx, "token delivery failed", "error", err)
			a.println("The token could not be sent; it may still arrive. Type 'resend' to try again.")
			return
		}
		a.printf("A security token was sent to %s. It expires in %d seconds.\n", email, a.manager.Tokens().Remaining())
	}

	issue()
	stop := a.startCountdown(ctx)
	// stop is rebound on resend; the closure defers the current one.
	defer func() { stop() }()

	for {
		input, err := getSimpleText(a.reader, "Enter the security token ('resend' for a new one, 'cancel' to abort)", a.out)
		if err != nil {
			return err
		}

		switch strings.ToLower(input) {
		case "cancel":
			return errAborted
		case "resend":
			stop()
			issue()
			stop = a.startCountdown(ctx)
			continue
		}

		if a.manager.Tokens().Verify(input) {
			a.println("E-mail address confirmed.")
			return nil
		}
		if !a.manager.Tokens().Active() {
			a.println("No live token. Type 'resend' to request a new one.")
			continue
		}
		a.println("The token does not match, try again.")
	}
}

// collectNewPassword prompts for a master password and its confirmation
// until the pair matches and satisfies the policy.
func (a *App) collectNewPassword(ctx context.Context) error {
	a.printf("Choose a master password: %d-%d characters with an upper-case letter, a lower-case letter, a digit, and one of %s.\n",
		password.MinLength, password.MaxLength, password.Symbols)

	for {
		pw, err := getPassword(a.out, "Enter master password: ")
		if err != nil {
			return err
		}
		confirm, err := getPassword(a.out, "Confirm master password: ")
		if err != nil {
			common.WipeByteArray(pw)
			return err
		}

		err = a.manager.SetPassword(string(pw), string(confirm))
		common.WipeByteArray(pw)
		common.WipeByteArray(confirm)

		switch {
		case err == nil:
			return nil
		case errors.Is(err, common.ErrPasswordMismatch):
			a.println("The passwords do not match, try again.")
		case errors.Is(err, common.ErrPolicyViolation):
			a.println("The password does not meet the policy, try again.")
		default:
			return err
		}
	}
}

// confirmOTP tells the user where the QR artifact is and loops until a
// code from the authenticator verifies against the fresh secret.
func (a *App) confirmOTP(ctx context.Context) error {
	a.printf("Scan the QR code at %s with your authenticator app.\n", a.qrPath)

	for {
		code, err := getSimpleText(a.reader, "Enter the 6-digit code from your authenticator ('cancel' to abort)", a.out)
		if err != nil {
			return err
		}
		if strings.EqualFold(code, "cancel") {
			return errAborted
		}

		err = a.manager.ConfirmOTPSetup(code)
		if err == nil {
			a.println("Two-factor authentication is set up.")
			return nil
		}
		if errors.Is(err, common.ErrInvalidOTP) {
			a.println("The code does not match, try again.")
			continue
		}
		return err
	}
}
