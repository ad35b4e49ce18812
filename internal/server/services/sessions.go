package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService issues token pairs after successful authentication and
// rotates them on refresh.
type SessionService struct {
	repos                        repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewSessionService(repos repomanager.RepositoryManager, cfg *config.Config) *SessionService {
	return &SessionService{
		repos:                        repos,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Issue mints a new token pair for an authenticated account.
func (s *SessionService) Issue(ctx context.Context, accountID string) (*TokenPair, error) {
	return s.generateTokenPair(ctx, accountID, s.repos)
}

// Refresh exchanges a refresh token for a new pair. Taking the old token
// and storing the new one happen in one transaction, so a token is good for
// one refresh only and cannot outlive a revocation of the account's tokens.
// Unknown tokens yield common.ErrInvalidToken, expired ones
// common.ErrRefreshTokenExpired; an expired token is removed either way.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var (
		pair    *TokenPair
		expired bool
	)
	err := s.repos.WithTx(ctx, func(ctx context.Context, tx repomanager.Repositories) error {
		token, err := tx.RefreshTokens().Delete(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		if !token.Expires.After(time.Now()) {
			expired = true
			return nil
		}
		pair, err = s.generateTokenPair(ctx, token.AccountID, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, common.ErrRefreshTokenExpired
	}
	return pair, nil
}

func (s *SessionService) generateTokenPair(ctx context.Context, accountID string, repos repomanager.Repositories) (*TokenPair, error) {
	access, err := auth.GenerateToken(accountID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: sign access token: %v", common.ErrorInternal, err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("%w: generate refresh token: %v", common.ErrorInternal, err)
	}
	if err := repos.RefreshTokens().Create(ctx, accountID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("%w: store refresh token: %v", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
