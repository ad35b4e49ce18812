// Package services contains the account service business logic: the
// mutation controller, view-model assembly and session issuing.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/configuration"
	"github.com/dmitrijs2005/accountkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// deriveCredential is a seam for tests that need cheaper KDF parameters.
var deriveCredential = credentials.Derive

// verifyMissing pays for a key derivation when the account is unknown.
var verifyMissing = credentials.VerifyMissing

// AccountService is the only component that mutates accounts. It checks
// preconditions and delegates every write to the store; exclusivity between
// concurrent writers comes from the store's version checks, not from locks
// here.
type AccountService struct {
	repos      repomanager.RepositoryManager
	serializer configuration.Serializer
	logger     logging.Logger
}

func NewAccountService(repos repomanager.RepositoryManager, l logging.Logger) *AccountService {
	return &AccountService{
		repos:  repos,
		logger: l.With("module", "account_service"),
	}
}

// ValidateName rejects blank names and names longer than
// common.MaxAccountNameLength runes.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", common.ErrorValidation)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", common.ErrorValidation)
	}
	if n := utf8.RuneCountInString(name); n > common.MaxAccountNameLength {
		return fmt.Errorf("%w: name is %d characters, limit is %d", common.ErrorValidation, n, common.MaxAccountNameLength)
	}
	return nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.repos.Accounts().LookupByID(ctx, id)
}

func (s *AccountService) List(ctx context.Context) ([]*models.Account, error) {
	return s.repos.Accounts().List(ctx)
}

// Create adds an account with no password and an empty configuration.
func (s *AccountService) Create(ctx context.Context, name string) (*models.Account, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	repo := s.repos.Accounts()
	if _, err := repo.LookupByName(ctx, name); err == nil {
		return nil, fmt.Errorf("account %q: %w", name, common.ErrorConflict)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error checking name: %w", err)
	}

	account, err := repo.Create(ctx, &models.Account{
		ID:            uuid.NewString(),
		Name:          name,
		Configuration: append([]byte(nil), configuration.Empty...),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.logger.Info(ctx, "account created", "account_id", account.ID)
	return account, nil
}

// ApplyConfiguration validates and stores blob as the account configuration.
// Applying the same blob twice leaves the same stored configuration.
func (s *AccountService) ApplyConfiguration(ctx context.Context, account *models.Account, blob []byte) (*models.Account, error) {
	canonical, err := s.serializer.Normalize(blob)
	if err != nil {
		return nil, err
	}

	next := account.Clone()
	next.Configuration = canonical
	updated, err := s.repos.Accounts().Persist(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("error applying configuration: %w", err)
	}
	return updated, nil
}

// RenameOrUpdate stores newName for the account and then applies blob.
// Names are compared byte for byte, so a change of case is a rename. When
// the rename succeeds but the configuration step fails, the account keeps
// its new name and its previous configuration, and the error is returned.
func (s *AccountService) RenameOrUpdate(ctx context.Context, id, newName string, blob []byte) (*models.Account, error) {
	if err := ValidateName(newName); err != nil {
		return nil, err
	}

	account, err := s.repos.Accounts().LookupByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.Name == newName {
		account, err = s.repos.Accounts().Persist(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("error updating account: %w", err)
		}
	} else {
		oldName := account.Name
		err = s.repos.WithTx(ctx, func(ctx context.Context, tx repomanager.Repositories) error {
			renamed, err := tx.Accounts().Rename(ctx, account, newName)
			if err != nil {
				return err
			}
			account = renamed
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error renaming account: %w", err)
		}
		s.logger.Info(ctx, "account renamed", "account_id", id, "old_name", oldName, "new_name", newName)
	}

	return s.ApplyConfiguration(ctx, account, blob)
}

// ChangePassword replaces the credential after checking current against it.
// A wrong current secret returns common.ErrorUnauthorized and changes
// nothing. Open sessions of the account are revoked.
func (s *AccountService) ChangePassword(ctx context.Context, account *models.Account, current, next string) (*models.Account, error) {
	if !credentials.Verify(account, current) {
		return nil, common.ErrorUnauthorized
	}

	cred, err := deriveCredential(next)
	if err != nil {
		return nil, fmt.Errorf("error deriving credential: %w", err)
	}

	updated, err := s.replaceCredential(ctx, account, cred)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "password changed", "account_id", account.ID)
	return updated, nil
}

// ResetPassword replaces the credential without checking the old one. An
// empty next clears it, leaving an account nobody can authenticate into
// until a password is set again.
func (s *AccountService) ResetPassword(ctx context.Context, account *models.Account, next string) (*models.Account, error) {
	var cred *models.Credential
	if next != "" {
		var err error
		if cred, err = deriveCredential(next); err != nil {
			return nil, fmt.Errorf("error deriving credential: %w", err)
		}
	}

	updated, err := s.replaceCredential(ctx, account, cred)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "password reset", "account_id", account.ID, "cleared", cred == nil)
	return updated, nil
}

func (s *AccountService) replaceCredential(ctx context.Context, account *models.Account, cred *models.Credential) (*models.Account, error) {
	var updated *models.Account
	err := s.repos.WithTx(ctx, func(ctx context.Context, tx repomanager.Repositories) error {
		var err error
		if updated, err = tx.Accounts().SetCredential(ctx, account, cred); err != nil {
			return err
		}
		return tx.RefreshTokens().DeleteByAccount(ctx, account.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("error storing credential: %w", err)
	}
	return updated, nil
}

// Delete removes the account, its sessions and its rename history.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	err := s.repos.WithTx(ctx, func(ctx context.Context, tx repomanager.Repositories) error {
		if _, err := tx.Accounts().LookupByID(ctx, id); err != nil {
			return err
		}
		if err := tx.RefreshTokens().DeleteByAccount(ctx, id); err != nil {
			return err
		}
		return tx.Accounts().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "account deleted", "account_id", id)
	return nil
}

// Authenticate reports whether secret matches the account's credential. It
// returns common.ErrorNotFound for unknown accounts and never writes.
func (s *AccountService) Authenticate(ctx context.Context, id, secret string) (bool, error) {
	account, err := s.repos.Accounts().LookupByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			verifyMissing(secret)
		}
		return false, err
	}
	return credentials.Verify(account, secret), nil
}
