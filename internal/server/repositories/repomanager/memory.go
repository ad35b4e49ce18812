package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/refreshtokens"
)

// MemoryRepositoryManager backs the service with in-process repositories.
// Units of work are serialized against each other but have no rollback:
// writes made before fn fails stay visible.
type MemoryRepositoryManager struct {
	mu       sync.Mutex
	accounts *accounts.MemoryRepository
	tokens   *refreshtokens.MemoryRepository
}

var _ RepositoryManager = (*MemoryRepositoryManager)(nil)

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		accounts: accounts.NewMemoryRepository(),
		tokens:   refreshtokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Accounts() accounts.Repository {
	return m.accounts
}

func (m *MemoryRepositoryManager) RefreshTokens() refreshtokens.Repository {
	return m.tokens
}

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m)
}
