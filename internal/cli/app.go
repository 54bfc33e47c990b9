// Package cli is the interactive shell over the account lifecycle
// controller and the credential record store. It owns all terminal I/O;
// the core packages below it never print.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mkalvans/passvault/internal/account"
	"github.com/mkalvans/passvault/internal/config"
	"github.com/mkalvans/passvault/internal/filex"
	"github.com/mkalvans/passvault/internal/logging"
	"github.com/mkalvans/passvault/internal/mail"
	"github.com/mkalvans/passvault/internal/prefs"
	"github.com/mkalvans/passvault/internal/records"
	"github.com/mkalvans/passvault/internal/secretstore"

	_ "modernc.org/sqlite"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// errAborted signals that the user cancelled an interactive flow. It is
// handled inside the shell and never shown as an error.
var errAborted = errors.New("aborted by user")

// QRFileName is where the provisioning QR code is written inside the data
// directory while OTP setup is pending.
const QRFileName = "qr.png"

// DatabaseFileName is the record database file inside the data directory.
const DatabaseFileName = "vault.db"

// PrefsFileName is the preference document inside the data directory.
const PrefsFileName = "data.json"

type App struct {
	config  *config.Config
	manager *account.Manager
	records records.Repository
	prefs   *prefs.FileStore
	log     logging.Logger

	db     *sql.DB
	qrPath string
	reader *bufio.Reader
	out    io.Writer
}

// NewApp wires the shell to its collaborators: the OS keyring secret
// store, the SMTP token sender, the record database, and the preference
// file, all rooted in the configured data directory.
func NewApp(cfg *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	dataDir, err := filex.EnsureSubdDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	db, err := records.InitDatabase(ctx, filepath.Join(dataDir, DatabaseFileName))
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	store := secretstore.NewKeyringStore(cfg.ClientName)
	sender := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	qrPath := filepath.Join(dataDir, QRFileName)

	return &App{
		config:  cfg,
		manager: account.NewManager(store, sender, log, qrPath, cfg.Issuer, cfg.TokenTTLSeconds),
		records: records.NewSQLiteRepository(db),
		prefs:   prefs.NewFileStore(filepath.Join(dataDir, PrefsFileName)),
		log:     log,
		db:      db,
		qrPath:  qrPath,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

// Run drives the whole session: first-run detection, sign-up or log-in,
// then the vault command loop. The rollback guard runs on every exit path
// so an interrupted sign-up never leaves a half-provisioned account.
func (a *App) Run(ctx context.Context) error {
	defer a.Shutdown(ctx)

	state, err := a.manager.Start(ctx)
	if err != nil {
		return err
	}

	if state == account.StateProvisioning {
		if err := a.signUp(ctx); err != nil {
			if errors.Is(err, errAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	} else {
		if err := a.logIn(ctx); err != nil {
			if errors.Is(err, errAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}

	a.vaultLoop(ctx)
	return nil
}

// Shutdown runs the provisioning rollback guard and releases resources.
// Safe to call more than once: the rollback is a no-op after the first run
// and the database handle closes once.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.manager.FinalizeOrRollback(ctx); err != nil {
		a.log.Error(ctx, "rollback failed", "error", err)
	}
	a.Close()
}

// Close releases the record database handle.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error(context.Background(), "error closing database", "error", err)
		}
		a.db = nil
	}
}

// startCountdown drives the security-token countdown one tick per second
// until the token expires or the returned stop function is called. Expiry
// is announced to the user once.
func (a *App) startCountdown(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, expired := a.manager.Tokens().Tick(); expired {
					a.println("The security token expired. Type 'resend' to request a new one.")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
