// Package refreshtokens stores the server side of account sessions: opaque
// refresh tokens exchanged for new token pairs.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// Repository issues, looks up and revokes refresh tokens.
type Repository interface {
	// Create stores token for accountID with an expiry of now+validity.
	Create(ctx context.Context, accountID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the token is unknown.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete revokes a single token and returns what it removed. Exactly one
	// of several concurrent callers gets the row; the rest, and callers
	// racing DeleteByAccount, get common.ErrorNotFound.
	Delete(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteByAccount revokes every token of the account.
	DeleteByAccount(ctx context.Context, accountID string) error
}
