// Package secretstore provides key-value access to named account secrets
// scoped to a fixed client identity. The OS-backed implementation keeps
// values in the platform credential store; an in-memory implementation
// exists for tests and headless environments.
//
// Absence of a secret is a first-class condition: Get and Delete report it
// as common.ErrorNotFound, and callers are expected to check for it with
// errors.Is rather than treat it as fatal.
package secretstore

// Well-known secret names. Each one is independently present or absent.
const (
	NameSalt      = "salt"
	NameCipherKey = "key"
	NameOTPSecret = "otp_key"
	NamePassword  = "password"
	NameUserEmail = "user_email"
)

// AllNames lists every account secret, in the order they are created
// during provisioning. Bulk deletion iterates this list.
var AllNames = []string{NameSalt, NameCipherKey, NameOTPSecret, NamePassword, NameUserEmail}

// Store is the secret store adapter contract. Values are opaque; no
// validation happens at this layer. Mutations are committed immediately.
type Store interface {
	// Get returns the named secret or common.ErrorNotFound.
	Get(name string) (string, error)

	// Set writes the named secret, overwriting any previous value.
	Set(name string, value string) error

	// Delete removes the named secret, or returns common.ErrorNotFound
	// if it is absent.
	Delete(name string) error
}
