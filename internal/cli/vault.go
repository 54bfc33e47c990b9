package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/mkalvans/passvault/internal/generator"
	"github.com/mkalvans/passvault/internal/prefs"
)

const vaultHelp = `Available commands:
  add            add or update a credential record
  find           look up a record by application name
  (l)ist         list stored application names
  gen            generate a password of the preferred length
  passlen        set the preferred generated-password length
  theme          set the UI theme
  resetpw        replace the master password (e-mail proof required)
  reset2fa       rotate the authenticator secret (e-mail proof required)
  wipe           delete the account and every stored record
  exit | quit    leave the program`

// vaultLoop is the unlocked-state command loop over the credential store.
func (a *App) vaultLoop(ctx context.Context) {
	a.println("Type 'help' for commands.")

	for {
		line, err := getSimpleText(a.reader, "passvault", a.out)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch strings.ToLower(cmd) {
		case "help":
			a.println(vaultHelp)

		case "add":
			a.addRecord(ctx)

		case "find":
			a.findRecord(ctx, args)

		case "l", "list":
			a.listRecords(ctx)

		case "gen":
			a.println(generator.Generate(a.prefs.Load().PasswordLength))

		case "passlen":
			a.setPasswordLength(ctx)

		case "theme":
			a.setTheme(ctx)

		case "resetpw":
			if err := a.forgotPassword(ctx); err != nil {
				if errors.Is(err, errAborted) {
					a.println("Password reset cancelled.")
					continue
				}
				a.log.Error(ctx, "password reset failed", "error", err)
				continue
			}
			a.println("Master password replaced.")

		case "reset2fa":
			if err := a.reset2FA(ctx); err != nil {
				if errors.Is(err, errAborted) {
					a.println("Two-factor reset cancelled.")
					continue
				}
				a.log.Error(ctx, "two-factor reset failed", "error", err)
				continue
			}
			a.println("Two-factor authentication replaced.")

		case "wipe":
			done, err := a.deleteAccount(ctx)
			if err != nil {
				a.log.Error(ctx, "account deletion failed", "error", err)
				continue
			}
			if done {
				return
			}

		case "exit", "quit":
			a.println("Bye!")
			return

		default:
			a.println("Unknown command:", cmd)
		}
	}
}

// addRecord stores a credential for an application. The password is
// encrypted before it reaches the database; an existing record for the
// same application is updated only after explicit confirmation.
func (a *App) addRecord(ctx context.Context) {
	app, err := getSimpleText(a.reader, "Application name", a.out)
	if err != nil || app == "" {
		return
	}

	existing, err := a.records.Search(ctx, app)
	if err != nil {
		a.log.Error(ctx, "record lookup failed", "error", err)
		return
	}
	if existing != nil {
		answer, err := getSimpleText(a.reader, "A record for this application exists. Overwrite? (y/n)", a.out)
		if err != nil || !strings.EqualFold(answer, "y") {
			return
		}
	}

	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return
	}
	pw, err := getSimpleText(a.reader, "Password ('gen' to generate one)", a.out)
	if err != nil {
		return
	}
	if strings.EqualFold(pw, "gen") {
		pw = generator.Generate(a.prefs.Load().PasswordLength)
		a.printf("Generated: %s\n", pw)
	}

	enc, err := a.manager.Encrypt(pw)
	if err != nil {
		a.log.Error(ctx, "encryption failed", "error", err)
		return
	}

	if existing != nil {
		err = a.records.Update(ctx, app, username, enc)
	} else {
		err = a.records.Insert(ctx, app, username, enc)
	}
	if err != nil {
		a.log.Error(ctx, "record save failed", "error", err)
		return
	}
	a.println("Saved.")
}

// findRecord looks up one application and prints the decrypted credential.
func (a *App) findRecord(ctx context.Context, args []string) {
	app := strings.Join(args, " ")
	if app == "" {
		var err error
		app, err = getSimpleText(a.reader, "Application name", a.out)
		if err != nil || app == "" {
			return
		}
	}

	rec, err := a.records.Search(ctx, app)
	if err != nil {
		a.log.Error(ctx, "record lookup failed", "error", err)
		return
	}
	if rec == nil {
		a.println("No record for", app)
		return
	}

	pw, err := a.manager.Decrypt(rec.Password)
	if err != nil {
		a.log.Error(ctx, "decryption failed", "error", err)
		return
	}
	a.printf("Application: %s\nUsername:    %s\nPassword:    %s\n", rec.App, rec.Username, pw)
}

func (a *App) listRecords(ctx context.Context) {
	apps, err := a.records.ListApps(ctx)
	if err != nil {
		a.log.Error(ctx, "record listing failed", "error", err)
		return
	}
	if len(apps) == 0 {
		a.println("The vault is empty.")
		return
	}
	for _, app := range apps {
		a.println(app)
	}
}

func (a *App) setPasswordLength(ctx context.Context) {
	current := a.prefs.Load().PasswordLength
	input, err := getSimpleText(a.reader, "Generated-password length (currently "+strconv.Itoa(current)+")", a.out)
	if err != nil || input == "" {
		return
	}
	length, err := strconv.Atoi(input)
	if err != nil {
		a.println("Not a number:", input)
		return
	}
	if err := a.prefs.SavePasswordLength(length); err != nil {
		a.log.Error(ctx, "preference save failed", "error", err)
		return
	}
	a.printf("Generated-password length set to %d.\n", prefs.NormalizeLength(length))
}

func (a *App) setTheme(ctx context.Context) {
	current := a.prefs.Load().Theme
	theme, err := getSimpleText(a.reader, "Theme (currently "+current+")", a.out)
	if err != nil || theme == "" {
		return
	}
	if err := a.prefs.SaveTheme(theme); err != nil {
		a.log.Error(ctx, "preference save failed", "error", err)
		return
	}
	a.println("Theme set to", theme+".")
}

// deleteAccount irreversibly removes the account secrets, every stored
// record, and the preference file. The user must type the application
// name to confirm. Returns done=true when the account was removed and
// the session should end.
func (a *App) deleteAccount(ctx context.Context) (bool, error) {
	a.println("This deletes the account and every stored credential. There is no undo.")
	answer, err := getSimpleText(a.reader, "Type 'passvault' to confirm, anything else to cancel", a.out)
	if err != nil {
		return false, err
	}
	if answer != "passvault" {
		a.println("Deletion cancelled.")
		return false, nil
	}

	var errs []error
	if err := a.records.DeleteAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.prefs.Delete(); err != nil {
		errs = append(errs, err)
	}
	if err := a.manager.DeleteAccount(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return false, err
	}

	a.println("Account deleted. Bye!")
	return true, nil
}
