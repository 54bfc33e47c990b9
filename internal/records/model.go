package records

// Record is one stored credential triple. Password is always the encrypted
// form: the store never sees plaintext, the caller encrypts before crossing
// this boundary and decrypts after.
type Record struct {
	ID       string
	App      string
	Username string
	Password string
}
