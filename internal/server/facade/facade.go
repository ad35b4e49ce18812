// Package facade is the boundary between the transports and the account
// services. It parses identifiers, sequences service calls per request and
// turns failures into Errors of a fixed set of Kinds.
package facade

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/configuration"
	"github.com/dmitrijs2005/accountkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/dmitrijs2005/accountkeeper/internal/server/services"
	"github.com/google/uuid"
)

// verifyMissing keeps failed lookups as slow as a wrong secret.
var verifyMissing = credentials.VerifyMissing

type AccountController interface {
	Get(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	Create(ctx context.Context, name string) (*models.Account, error)
	ApplyConfiguration(ctx context.Context, account *models.Account, blob []byte) (*models.Account, error)
	RenameOrUpdate(ctx context.Context, id, newName string, blob []byte) (*models.Account, error)
	ChangePassword(ctx context.Context, account *models.Account, current, next string) (*models.Account, error)
	ResetPassword(ctx context.Context, account *models.Account, next string) (*models.Account, error)
	Delete(ctx context.Context, id string) error
	Authenticate(ctx context.Context, id, secret string) (bool, error)
}

type ViewBuilder interface {
	BuildOne(ctx context.Context, a *models.Account) (*models.AccountView, error)
	BuildMany(ctx context.Context, accounts []*models.Account) ([]*models.AccountView, error)
}

type SessionIssuer interface {
	Issue(ctx context.Context, accountID string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

var (
	_ AccountController = (*services.AccountService)(nil)
	_ ViewBuilder       = (*services.ViewAssembler)(nil)
	_ SessionIssuer     = (*services.SessionService)(nil)
)

type Service struct {
	accounts   AccountController
	views      ViewBuilder
	sessions   SessionIssuer
	serializer configuration.Serializer
	logger     logging.Logger
}

func New(a AccountController, v ViewBuilder, s SessionIssuer, l logging.Logger) *Service {
	return &Service{
		accounts: a,
		views:    v,
		sessions: s,
		logger:   l.With("module", "facade"),
	}
}

func (s *Service) fail(ctx context.Context, op string, e *Error) error {
	if e.Kind == KindInternal {
		s.logger.Error(ctx, "request failed", "op", op, "error", e.Err)
	} else {
		s.logger.Debug(ctx, "request rejected", "op", op, "kind", e.Kind.String(), "error", e.Err)
	}
	return e
}

func parseID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: malformed account id %q", common.ErrorValidation, raw)
	}
	return id.String(), nil
}

// checkConfiguration rejects a malformed blob before any write, so a bad
// request never leaves a half-applied update behind.
func (s *Service) checkConfiguration(blob []byte) error {
	_, err := s.serializer.Normalize(blob)
	return err
}

func (s *Service) ListUsers(ctx context.Context) ([]*models.AccountView, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list", classify(err))
	}
	views, err := s.views.BuildMany(ctx, accounts)
	if err != nil {
		return nil, s.fail(ctx, "list", classify(err))
	}
	return views, nil
}

func (s *Service) GetUser(ctx context.Context, rawID string) (*models.AccountView, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, s.fail(ctx, "get", classify(err))
	}
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "get", classify(err))
	}
	view, err := s.views.BuildOne(ctx, account)
	if err != nil {
		return nil, s.fail(ctx, "get", classify(err))
	}
	return view, nil
}

// CreateUser creates the account, applies blob to it and returns its view.
func (s *Service) CreateUser(ctx context.Context, name string, blob []byte) (*models.AccountView, error) {
	if err := s.checkConfiguration(blob); err != nil {
		return nil, s.fail(ctx, "create", classify(err))
	}
	account, err := s.accounts.Create(ctx, name)
	if err != nil {
		return nil, s.fail(ctx, "create", classify(err))
	}
	account, err = s.accounts.ApplyConfiguration(ctx, account, blob)
	if err != nil {
		return nil, s.fail(ctx, "create", classify(err))
	}
	view, err := s.views.BuildOne(ctx, account)
	if err != nil {
		return nil, s.fail(ctx, "create", classify(err))
	}
	return view, nil
}

func (s *Service) UpdateUser(ctx context.Context, rawID, name string, blob []byte) (*models.AccountView, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, s.fail(ctx, "update", classify(err))
	}
	if err := s.checkConfiguration(blob); err != nil {
		return nil, s.fail(ctx, "update", classify(err))
	}
	account, err := s.accounts.RenameOrUpdate(ctx, id, name, blob)
	if err != nil {
		return nil, s.fail(ctx, "update", classify(err))
	}
	view, err := s.views.BuildOne(ctx, account)
	if err != nil {
		return nil, s.fail(ctx, "update", classify(err))
	}
	return view, nil
}

// DeleteUser expects the caller to have been authorized by the transport.
func (s *Service) DeleteUser(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return s.fail(ctx, "delete", classify(err))
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return s.fail(ctx, "delete", classify(err))
	}
	return nil
}

// Authenticate checks secret and opens a session. An unknown or malformed
// id fails exactly like a wrong secret.
func (s *Service) Authenticate(ctx context.Context, rawID, secret string) (*services.TokenPair, error) {
	id, err := parseID(rawID)
	if err != nil {
		verifyMissing(secret)
		return nil, s.fail(ctx, "authenticate", hideExistence(common.ErrorNotFound))
	}
	ok, err := s.accounts.Authenticate(ctx, id, secret)
	if err != nil {
		return nil, s.fail(ctx, "authenticate", hideExistence(err))
	}
	if !ok {
		return nil, s.fail(ctx, "authenticate", hideExistence(common.ErrorUnauthorized))
	}
	pair, err := s.sessions.Issue(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "authenticate", classify(err))
	}
	return pair, nil
}

// UpdatePassword changes the password after checking current, or, when
// reset is set, replaces it with next (clearing it if next is empty)
// without any check. Resets must be authorized by the transport.
func (s *Service) UpdatePassword(ctx context.Context, rawID, current, next string, reset bool) error {
	if reset {
		return s.resetPassword(ctx, rawID, next)
	}

	id, err := parseID(rawID)
	if err != nil {
		verifyMissing(current)
		return s.fail(ctx, "change_password", hideExistence(common.ErrorNotFound))
	}
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			verifyMissing(current)
		}
		return s.fail(ctx, "change_password", hideExistence(err))
	}
	if _, err := s.accounts.ChangePassword(ctx, account, current, next); err != nil {
		return s.fail(ctx, "change_password", hideExistence(err))
	}
	return nil
}

func (s *Service) resetPassword(ctx context.Context, rawID, next string) error {
	id, err := parseID(rawID)
	if err != nil {
		return s.fail(ctx, "reset_password", classify(err))
	}
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		return s.fail(ctx, "reset_password", classify(err))
	}
	if _, err := s.accounts.ResetPassword(ctx, account, next); err != nil {
		return s.fail(ctx, "reset_password", classify(err))
	}
	return nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	if refreshToken == "" {
		return nil, s.fail(ctx, "refresh", classify(common.ErrInvalidToken))
	}
	pair, err := s.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, s.fail(ctx, "refresh", classify(err))
	}
	return pair, nil
}

// API is what the transports need from the facade.
type API interface {
	ListUsers(ctx context.Context) ([]*models.AccountView, error)
	GetUser(ctx context.Context, id string) (*models.AccountView, error)
	CreateUser(ctx context.Context, name string, blob []byte) (*models.AccountView, error)
	UpdateUser(ctx context.Context, id, name string, blob []byte) (*models.AccountView, error)
	DeleteUser(ctx context.Context, id string) error
	Authenticate(ctx context.Context, id, secret string) (*services.TokenPair, error)
	UpdatePassword(ctx context.Context, id, current, next string, reset bool) error
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

var _ API = (*Service)(nil)
