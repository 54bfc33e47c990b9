package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/mkalvans/passvault/internal/account"
	"github.com/mkalvans/passvault/internal/config"
	"github.com/mkalvans/passvault/internal/logging"
	"github.com/mkalvans/passvault/internal/prefs"
	"github.com/mkalvans/passvault/internal/records"
	"github.com/mkalvans/passvault/internal/secretstore"
)

type fakeSender struct {
	mu   sync.Mutex
	to   string
	body string
	err  error
}

func (f *fakeSender) Send(to, _, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to, f.body = to, body
	return f.err
}

func (f *fakeSender) Body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.body
}

type fakeRepo struct {
	recs map[string]records.Record
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{recs: map[string]records.Record{}}
}

func (r *fakeRepo) Insert(_ context.Context, app, username, encPassword string) error {
	r.recs[app] = records.Record{ID: app, App: app, Username: username, Password: encPassword}
	return nil
}

func (r *fakeRepo) Search(_ context.Context, app string) (*records.Record, error) {
	rec, ok := r.recs[app]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *fakeRepo) Update(_ context.Context, app, username, encPassword string) error {
	r.recs[app] = records.Record{ID: app, App: app, Username: username, Password: encPassword}
	return nil
}

func (r *fakeRepo) ListApps(_ context.Context) ([]string, error) {
	apps := make([]string, 0, len(r.recs))
	for app := range r.recs {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps, nil
}

func (r *fakeRepo) DeleteAll(_ context.Context) error {
	r.recs = map[string]records.Record{}
	return nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestApp(t *testing.T, store secretstore.Store, input string) (*App, *fakeSender, *bytes.Buffer) {
	t.Helper()
	sender := &fakeSender{}
	out := &bytes.Buffer{}
	qrPath := filepath.Join(t.TempDir(), "qr.png")

	a := &App{
		config:  &config.Config{},
		manager: account.NewManager(store, sender, testLogger(), qrPath, "passvault", 60),
		records: newFakeRepo(),
		prefs:   prefs.NewFileStore(filepath.Join(t.TempDir(), "data.json")),
		log:     testLogger(),
		qrPath:  qrPath,
		reader:  bufio.NewReader(strings.NewReader(input)),
		out:     out,
	}
	return a, sender, out
}

// stubPasswords replaces the password prompt with a queue of canned
// answers for the duration of the test.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	old := getPassword
	t.Cleanup(func() { getPassword = old })

	queue := pws
	getPassword = func(io.Writer, string) ([]byte, error) {
		if len(queue) == 0 {
			return nil, io.EOF
		}
		pw := queue[0]
		queue = queue[1:]
		return []byte(pw), nil
	}
}

func currentOTPCode(t *testing.T, store secretstore.Store) string {
	t.Helper()
	secret, err := store.Get(secretstore.NameOTPSecret)
	require.NoError(t, err)
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

// provision walks the manager through account creation without the shell.
func provision(t *testing.T, a *App, store secretstore.Store) {
	t.Helper()
	ctx := context.Background()

	state, err := a.manager.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, account.StateProvisioning, state)

	require.NoError(t, a.manager.SetUserEmail("user@example.com"))
	require.NoError(t, a.manager.SetPassword("Password1!", "Password1!"))
	require.NoError(t, a.manager.SetupOTP())
	require.NoError(t, a.manager.ConfirmOTPSetup(currentOTPCode(t, store)))
}

func deliveredToken(t *testing.T, sender *fakeSender) string {
	t.Helper()
	require.Eventually(t, func() bool { return sender.Body() != "" },
		time.Second, 10*time.Millisecond)
	return strings.TrimPrefix(sender.Body(), "Your authentication token - ")
}

func TestSignUp_FullFlow(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	a, sender, _ := newTestApp(t, store, "")
	stubPasswords(t, "Password1!", "Password1!")

	ctx := context.Background()
	state, err := a.manager.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, account.StateProvisioning, state)

	pr, pw := io.Pipe()
	a.reader = bufio.NewReader(pr)

	done := make(chan error, 1)
	go func() { done <- a.signUp(ctx) }()

	// E-mail prompt, then the token that was "delivered".
	_, err = pw.Write([]byte("user@example.com\n"))
	require.NoError(t, err)
	code := deliveredToken(t, sender)
	_, err = pw.Write([]byte(code + "\n"))
	require.NoError(t, err)

	// OTP setup rotated the secret and wrote the QR; answer with a live code.
	require.Eventually(t, func() bool {
		_, statErr := os.Stat(a.qrPath)
		return statErr == nil
	}, time.Second, 10*time.Millisecond)
	_, err = pw.Write([]byte(currentOTPCode(t, store) + "\n"))
	require.NoError(t, err)

	require.NoError(t, <-done)
	require.Equal(t, account.StateActive, a.manager.State())
	require.True(t, a.manager.RegistrationComplete())
	require.NoFileExists(t, a.qrPath)

	email, err := a.manager.UserEmail()
	require.NoError(t, err)
	require.Equal(t, "user@example.com", email)
}

func TestProveEmail_AcceptsDeliveredToken(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	a, sender, _ := newTestApp(t, store, "")

	pr, pw := io.Pipe()
	a.reader = bufio.NewReader(pr)

	done := make(chan error, 1)
	go func() { done <- a.proveEmail(context.Background(), "user@example.com") }()

	code := deliveredToken(t, sender)
	_, err := pw.Write([]byte(code + "\n"))
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Equal(t, "user@example.com", sender.to)
}

func TestProveEmail_WrongCodeThenRight(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	a, sender, out := newTestApp(t, store, "")

	pr, pw := io.Pipe()
	a.reader = bufio.NewReader(pr)

	done := make(chan error, 1)
	go func() { done <- a.proveEmail(context.Background(), "user@example.com") }()

	code := deliveredToken(t, sender)
	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}
	_, err := pw.Write([]byte(wrong + "\n" + code + "\n"))
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Contains(t, out.String(), "does not match")
}

func TestProveEmail_Cancel(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	a, _, _ := newTestApp(t, store, "cancel\n")

	err := a.proveEmail(context.Background(), "user@example.com")
	require.ErrorIs(t, err, errAborted)
}

func TestProveEmail_DeliveryFailureKeepsTokenLive(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	a, sender, out := newTestApp(t, store, "")
	sender.err = io.ErrClosedPipe

	pr, pw := io.Pipe()
	a.reader = bufio.NewReader(pr)

	done := make(chan error, 1)
	go func() { done <- a.proveEmail(context.Background(), "user@example.com") }()

	// The send failed, but the token in the captured body is still live.
	code := deliveredToken(t, sender)
	_, err := pw.Write([]byte(code + "\n"))
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Contains(t, out.String(), "could not be sent")
}

func TestCollectNewPassword_RetriesUntilValid(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	a, _, out := newTestApp(t, store, "")
	require.NoError(t, a.manager.InitializeNewAccount())

	stubPasswords(t,
		"Password1!", "Different1!", // mismatch
		"short", "short", // policy violation
		"Password1!", "Password1!", // accepted
	)

	require.NoError(t, a.collectNewPassword(context.Background()))
	require.Contains(t, out.String(), "do not match")
	require.Contains(t, out.String(), "policy")

	_, err := store.Get(secretstore.NamePassword)
	require.NoError(t, err)
}

func TestVaultLoop_AddFindList(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	input := strings.Join([]string{
		"add", "github", "alice", "Hunter2-secret",
		"find github",
		"list",
		"exit",
	}, "\n") + "\n"
	a, _, out := newTestApp(t, store, input)
	provision(t, a, store)

	a.vaultLoop(context.Background())

	require.Contains(t, out.String(), "alice")
	require.Contains(t, out.String(), "Hunter2-secret")
	require.Contains(t, out.String(), "github")

	// The repository must never see the plaintext.
	repo := a.records.(*fakeRepo)
	require.NotEqual(t, "Hunter2-secret", repo.recs["github"].Password)
	require.NotEmpty(t, repo.recs["github"].Password)
}

func TestVaultLoop_AddExisting_RequiresConfirmation(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	input := strings.Join([]string{
		"add", "github", "alice", "FirstPass1!",
		"add", "github", "n", // decline overwrite
		"find github",
		"exit",
	}, "\n") + "\n"
	a, _, out := newTestApp(t, store, input)
	provision(t, a, store)

	a.vaultLoop(context.Background())

	require.Contains(t, out.String(), "FirstPass1!")
	require.Contains(t, out.String(), "Overwrite?")
}

func TestVaultLoop_GeneratedPasswordOnAdd(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	input := strings.Join([]string{
		"add", "mail", "bob", "gen",
		"exit",
	}, "\n") + "\n"
	a, _, out := newTestApp(t, store, input)
	provision(t, a, store)

	a.vaultLoop(context.Background())

	require.Contains(t, out.String(), "Generated: ")
	repo := a.records.(*fakeRepo)
	require.NotEmpty(t, repo.recs["mail"].Password)
}

func TestVaultLoop_PasswordLengthPreference(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	input := "passlen\n10\nexit\n"
	a, _, _ := newTestApp(t, store, input)
	provision(t, a, store)

	a.vaultLoop(context.Background())

	require.Equal(t, 10, a.prefs.Load().PasswordLength)
}

func TestVaultLoop_DeleteAccount(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	input := strings.Join([]string{
		"add", "github", "alice", "Hunter2-secret",
		"wipe", "no thanks", // declined
		"wipe", "passvault", // confirmed
	}, "\n") + "\n"
	a, _, out := newTestApp(t, store, input)
	provision(t, a, store)

	a.vaultLoop(context.Background())

	require.Contains(t, out.String(), "Deletion cancelled.")
	require.Contains(t, out.String(), "Account deleted.")

	repo := a.records.(*fakeRepo)
	require.Empty(t, repo.recs)
	for _, name := range secretstore.AllNames {
		_, err := store.Get(name)
		require.Error(t, err, name)
	}
}

func TestLogIn_WrongThenRightPassword(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	a, _, out := newTestApp(t, store, "")
	provision(t, a, store)

	code := currentOTPCode(t, store)
	a.reader = bufio.NewReader(strings.NewReader(
		"unlock\n" + code + "\n" + "unlock\n" + code + "\n"))
	stubPasswords(t, "wrong-password", "Password1!")

	require.NoError(t, a.logIn(context.Background()))
	require.Contains(t, out.String(), "Wrong master password.")
	require.Contains(t, out.String(), "Vault unlocked.")
}

func TestLogIn_Exit(t *testing.T) {
	store := secretstore.NewInMemoryStore()
	a, _, _ := newTestApp(t, store, "exit\n")
	provision(t, a, store)

	require.ErrorIs(t, a.logIn(context.Background()), errAborted)
}
