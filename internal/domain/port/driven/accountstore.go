// Package driven defines the driven ports (outbound dependencies) of the
// clipping flow: the account store and the retailer coupon API.
package driven

import (
	"context"
	"errors"

	"github.com/mstreet/couponclip/internal/domain/model"
)

// ErrAccountNotFound is returned by AccountStore lookups when no row matches.
var ErrAccountNotFound = errors.New("account not found")

// AccountStore is the driven port for account persistence. The orchestration
// flow only reads (ListIDs, GetByID); the remaining operations exist for the
// operator tooling and are never invoked from workflow code.
type AccountStore interface {
	// ListIDs returns every account ID known to the store. An empty store
	// yields an empty slice, not an error.
	ListIDs(ctx context.Context) ([]int64, error)

	// GetByID returns the account with the given ID, including its encrypted
	// password. Returns ErrAccountNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (model.Account, error)

	// GetByUsername returns the account with the given username.
	// Returns ErrAccountNotFound when no row matches.
	GetByUsername(ctx context.Context, username string) (model.Account, error)

	// List returns all accounts ordered by ID.
	List(ctx context.Context) ([]model.Account, error)

	// Create inserts a new account and returns its assigned ID. The password
	// must already be encrypted; this store never sees plaintext.
	Create(ctx context.Context, username, encryptedPassword string) (int64, error)

	// Delete removes the account with the given ID. Deleting a missing
	// account is not an error.
	Delete(ctx context.Context, id int64) error
}
