// Package accounts is the account store gateway: the only place account
// records are read from and written to.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// Repository is the account store contract.
//
// Every mutating call takes the account as last read by the caller and
// succeeds only if the stored version still matches a.Version; otherwise it
// returns common.ErrVersionConflict. The returned account carries the new
// version. Lookups return common.ErrorNotFound for unknown accounts and
// name collisions surface as common.ErrorConflict.
type Repository interface {
	LookupByID(ctx context.Context, id string) (*models.Account, error)
	LookupByName(ctx context.Context, name string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)

	// Create stores a new account under a.ID.
	Create(ctx context.Context, a *models.Account) (*models.Account, error)

	// Persist writes the name and configuration of a.
	Persist(ctx context.Context, a *models.Account) (*models.Account, error)

	// Rename changes the name of a to newName and records the change in
	// the rename history.
	Rename(ctx context.Context, a *models.Account, newName string) (*models.Account, error)

	// SetCredential replaces the stored credential; nil clears it.
	SetCredential(ctx context.Context, a *models.Account, cred *models.Credential) (*models.Account, error)

	// Delete removes the account together with its rename history.
	Delete(ctx context.Context, id string) error
}
