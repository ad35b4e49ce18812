// Package repomanager vends the account service repositories for a storage
// backend and runs multi-step units of work against it.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/refreshtokens"
)

// Repositories gives access to the repositories of one store, or of one
// transaction in it.
type Repositories interface {
	Accounts() accounts.Repository
	RefreshTokens() refreshtokens.Repository
}

// RepositoryManager is a Repositories bound to the whole store that can also
// run fn as a single unit. If fn returns an error nothing it wrote through tx
// is kept, where the backend supports rollback.
type RepositoryManager interface {
	Repositories
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}
