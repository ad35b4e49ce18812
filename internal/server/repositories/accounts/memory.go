package accounts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// MemoryRepository is an in-process Repository used when no database is
// configured and in tests. Stored accounts are never shared with callers.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Account
	byName  map[string]string
	renames map[string][]models.AccountRename
	now     func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.Account),
		byName:  make(map[string]string),
		renames: make(map[string][]models.AccountRename),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) LookupByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a.Clone(), nil
}

func (r *MemoryRepository) LookupByName(_ context.Context, name string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Account, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; ok {
		return nil, fmt.Errorf("account id %s: %w", a.ID, common.ErrorConflict)
	}
	if _, ok := r.byName[a.Name]; ok {
		return nil, fmt.Errorf("account %q: %w", a.Name, common.ErrorConflict)
	}

	stored := a.Clone()
	stored.Version = 1
	stored.CreatedAt = r.now()
	stored.UpdatedAt = stored.CreatedAt
	r.byID[stored.ID] = stored
	r.byName[stored.Name] = stored.ID
	return stored.Clone(), nil
}

func (r *MemoryRepository) Persist(_ context.Context, a *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.checkVersion(a)
	if err != nil {
		return nil, err
	}
	if err := r.claimName(stored, a.Name); err != nil {
		return nil, err
	}
	stored.Configuration = append([]byte(nil), a.Configuration...)
	r.bump(stored)
	return stored.Clone(), nil
}

func (r *MemoryRepository) Rename(_ context.Context, a *models.Account, newName string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.checkVersion(a)
	if err != nil {
		return nil, err
	}
	oldName := stored.Name
	if err := r.claimName(stored, newName); err != nil {
		return nil, err
	}
	r.bump(stored)
	r.renames[stored.ID] = append(r.renames[stored.ID], models.AccountRename{
		AccountID: stored.ID,
		OldName:   oldName,
		NewName:   newName,
		RenamedAt: stored.UpdatedAt,
	})
	return stored.Clone(), nil
}

func (r *MemoryRepository) SetCredential(_ context.Context, a *models.Account, cred *models.Credential) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.checkVersion(a)
	if err != nil {
		return nil, err
	}
	stored.Credential = cred.Clone()
	r.bump(stored)
	return stored.Clone(), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byName, a.Name)
	delete(r.byID, id)
	delete(r.renames, id)
	return nil
}

// Renames returns the rename history of an account, oldest first.
func (r *MemoryRepository) Renames(id string) []models.AccountRename {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.AccountRename(nil), r.renames[id]...)
}

// checkVersion must be called with mu held.
func (r *MemoryRepository) checkVersion(a *models.Account) (*models.Account, error) {
	stored, ok := r.byID[a.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if stored.Version != a.Version {
		return nil, fmt.Errorf("account %s at version %d: %w", a.ID, a.Version, common.ErrVersionConflict)
	}
	return stored, nil
}

// claimName must be called with mu held.
func (r *MemoryRepository) claimName(stored *models.Account, name string) error {
	if name == stored.Name {
		return nil
	}
	if _, taken := r.byName[name]; taken {
		return fmt.Errorf("account %q: %w", name, common.ErrorConflict)
	}
	delete(r.byName, stored.Name)
	r.byName[name] = stored.ID
	stored.Name = name
	return nil
}

func (r *MemoryRepository) bump(stored *models.Account) {
	stored.Version++
	stored.UpdatedAt = r.now()
}
