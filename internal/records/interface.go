// Package records is the credential record store: app → username/password
// triples kept in a local SQLite database. Passwords are stored encrypted;
// encryption happens above this layer.
package records

import "context"

// Repository describes CRUD and query operations for credential records.
type Repository interface {
	// Insert adds a new record for app.
	Insert(ctx context.Context, app, username, encPassword string) error

	// Search returns the record for app, or nil when none exists.
	Search(ctx context.Context, app string) (*Record, error)

	// Update replaces username and password for an existing app record.
	Update(ctx context.Context, app, username, encPassword string) error

	// ListApps returns all app names in alphabetical order.
	ListApps(ctx context.Context) ([]string, error)

	// DeleteAll removes every record. Used by account deletion.
	DeleteAll(ctx context.Context) error
}
