// Package token implements the e-mail security-token protocol: a single
// in-flight 6-digit code with a one-minute countdown, used to prove control
// of the registered address during account creation and resets.
//
// The countdown is an explicit step function (Tick) driven by the shell,
// not a background timer, so tests can simulate time without real delays.
package token

import (
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/mkalvans/passvault/internal/common"
)

// CodeLength is the number of digits in a security token.
const CodeLength = 6

// DefaultTTL is the countdown length in seconds.
const DefaultTTL = 60

// Sender delivers a token to an e-mail address. Implemented by the mail
// collaborator; tests substitute a fake.
type Sender interface {
	Send(to, subject, body string) error
}

const (
	mailSubject  = "passvault authentication token"
	mailBodyTmpl = "Your authentication token - %s"
)

// Issuer owns at most one live token per process. Issuing a new token
// supersedes the previous one and restarts the countdown. Safe for
// concurrent use: the shell ticks the countdown from a timer goroutine
// while the main goroutine reads user input.
type Issuer struct {
	sender Sender
	ttl    int

	mu        sync.Mutex
	code      string
	remaining int
}

// NewIssuer returns an issuer with the given countdown length in seconds;
// ttlSeconds <= 0 selects DefaultTTL.
func NewIssuer(sender Sender, ttlSeconds int) *Issuer {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultTTL
	}
	return &Issuer{sender: sender, ttl: ttlSeconds}
}

// Issue generates a fresh 6-digit token, makes it the single live token,
// and sends it to email. A delivery failure is returned to the caller but
// does not invalidate the token: the countdown keeps running, since the
// user may still receive the code via retry or out-of-band means.
func (i *Issuer) Issue(email string) (string, error) {
	code := common.GenerateDigitToken(CodeLength)

	i.mu.Lock()
	i.code = code
	i.remaining = i.ttl
	i.mu.Unlock()

	// The send happens outside the lock so a slow relay does not stall
	// the countdown.
	if err := i.sender.Send(email, mailSubject, fmt.Sprintf(mailBodyTmpl, code)); err != nil {
		return code, fmt.Errorf("failed to send security token: %w", err)
	}
	return code, nil
}

// Verify reports whether candidate equals the live token. On success the
// token is cleared immediately: each token is single-use. The comparison is
// constant-time; callers are expected to trim their input.
func (i *Issuer) Verify(candidate string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.code == "" || len(candidate) != len(i.code) {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(i.code)) != 1 {
		return false
	}
	i.clear()
	return true
}

// Tick advances the countdown by one second. It returns the remaining
// seconds and whether the token expired on this step; expiry clears the
// token and is reported exactly once. Ticking with no live token is a no-op.
func (i *Issuer) Tick() (remaining int, expired bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.code == "" {
		return 0, false
	}

	i.remaining--
	if i.remaining < 0 {
		i.clear()
		return 0, true
	}
	return i.remaining, false
}

// Active reports whether a live token exists.
func (i *Issuer) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.code != ""
}

// Remaining returns the seconds left on the live token's countdown.
func (i *Issuer) Remaining() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.code == "" {
		return 0
	}
	return i.remaining
}

func (i *Issuer) clear() {
	i.code = ""
	i.remaining = 0
}
