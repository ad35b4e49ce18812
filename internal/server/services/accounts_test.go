package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountService(t *testing.T) (*AccountService, *spyManager) {
	t.Helper()
	m := newSpyManager()
	return NewAccountService(m, logging.Nop{}), m
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("bob"))
	assert.NoError(t, ValidateName(strings.Repeat("é", common.MaxAccountNameLength)))

	for _, bad := range []string{"", "   ", "\t\n", strings.Repeat("x", common.MaxAccountNameLength+1), "bad\xff"} {
		assert.ErrorIs(t, ValidateName(bad), common.ErrorValidation, "name %q", bad)
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	s, _ := newAccountService(t)

	a, err := s.Create(ctx, "X")
	require.NoError(t, err)
	_, err = uuid.Parse(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, "X", a.Name)
	assert.Equal(t, "{}", string(a.Configuration))
	assert.False(t, a.HasPassword())

	_, err = s.Create(ctx, "X")
	assert.ErrorIs(t, err, common.ErrorConflict)

	// names are case sensitive
	_, err = s.Create(ctx, "x")
	assert.NoError(t, err)

	_, err = s.Create(ctx, " ")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCreate_ConcurrentSameName(t *testing.T) {
	ctx := context.Background()
	s, _ := newAccountService(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Create(ctx, "dup")
		}()
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, common.ErrorConflict)
	}
	assert.Equal(t, 1, created)
}

func TestApplyConfiguration(t *testing.T) {
	ctx := context.Background()
	s, _ := newAccountService(t)
	a, err := s.Create(ctx, "alice")
	require.NoError(t, err)

	a, err = s.ApplyConfiguration(ctx, a, []byte(`{"b": 2, "a": 1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, string(a.Configuration))

	again, err := s.ApplyConfiguration(ctx, a, []byte(`{"b": 2, "a": 1}`))
	require.NoError(t, err)
	assert.Equal(t, a.Configuration, again.Configuration)

	_, err = s.ApplyConfiguration(ctx, again, []byte(`[]`))
	assert.ErrorIs(t, err, common.ErrorValidation)

	stored, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, string(stored.Configuration))
}

func TestRenameOrUpdate_SameNameIsUpdate(t *testing.T) {
	ctx := context.Background()
	s, m := newAccountService(t)
	a, err := s.Create(ctx, "bob")
	require.NoError(t, err)
	m.accounts.takeCalls()

	got, err := s.RenameOrUpdate(ctx, a.ID, "bob", []byte(`{"theme":"dark"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"persist", "persist"}, m.accounts.takeCalls())
	assert.Equal(t, "bob", got.Name)
	assert.Equal(t, `{"theme":"dark"}`, string(got.Configuration))
}

func TestRenameOrUpdate_CaseChangeIsRename(t *testing.T) {
	ctx := context.Background()
	s, m := newAccountService(t)
	a, err := s.Create(ctx, "bob")
	require.NoError(t, err)
	m.accounts.takeCalls()

	got, err := s.RenameOrUpdate(ctx, a.ID, "Bob", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"rename", "persist"}, m.accounts.takeCalls())
	assert.Equal(t, "Bob", got.Name)

	_, err = s.List(ctx)
	require.NoError(t, err)
	_, err = m.MemoryRepositoryManager.Accounts().LookupByName(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRenameOrUpdate_Errors(t *testing.T) {
	ctx := context.Background()
	s, _ := newAccountService(t)
	a, err := s.Create(ctx, "bob")
	require.NoError(t, err)
	_, err = s.Create(ctx, "carol")
	require.NoError(t, err)

	_, err = s.RenameOrUpdate(ctx, uuid.NewString(), "zed", nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.RenameOrUpdate(ctx, a.ID, "carol", nil)
	assert.ErrorIs(t, err, common.ErrorConflict)

	_, err = s.RenameOrUpdate(ctx, a.ID, "", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestRenameOrUpdate_ConfigFailureKeepsRename(t *testing.T) {
	ctx := context.Background()
	s, m := newAccountService(t)
	a, err := s.Create(ctx, "bob")
	require.NoError(t, err)
	a, err = s.ApplyConfiguration(ctx, a, []byte(`{"old":1}`))
	require.NoError(t, err)

	m.accounts.persistErr = errors.New("disk full")
	_, err = s.RenameOrUpdate(ctx, a.ID, "robert", []byte(`{"new":1}`))
	require.Error(t, err)
	m.accounts.persistErr = nil

	stored, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "robert", stored.Name)
	assert.Equal(t, `{"old":1}`, string(stored.Configuration))

	// resending the same update completes it
	got, err := s.RenameOrUpdate(ctx, a.ID, "robert", []byte(`{"new":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"new":1}`, string(got.Configuration))
}

func TestPasswordLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newAccountService(t)
	a, err := s.Create(ctx, "alice")
	require.NoError(t, err)

	// a fresh account has no credential and cannot be authenticated into
	ok, err := s.Authenticate(ctx, a.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ChangePassword(ctx, a, "", "first")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	a, err = s.ResetPassword(ctx, a, "first")
	require.NoError(t, err)
	assert.True(t, credentials.Verify(a, "first"))

	a, err = s.ChangePassword(ctx, a, "first", "second")
	require.NoError(t, err)

	ok, err = s.Authenticate(ctx, a.ID, "second")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Authenticate(ctx, a.ID, "first")
	require.NoError(t, err)
	assert.False(t, ok)

	a, err = s.ResetPassword(ctx, a, "")
	require.NoError(t, err)
	assert.False(t, a.HasPassword())
	ok, err = s.Authenticate(ctx, a.ID, "second")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangePassword_WrongCurrentChangesNothing(t *testing.T) {
	ctx := context.Background()
	s, m := newAccountService(t)
	a, err := s.Create(ctx, "alice")
	require.NoError(t, err)
	a, err = s.ResetPassword(ctx, a, "right")
	require.NoError(t, err)
	m.accounts.takeCalls()

	_, err = s.ChangePassword(ctx, a, "wrong", "new")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Empty(t, m.accounts.takeCalls())

	stored, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Version, stored.Version)
	assert.True(t, credentials.Verify(stored, "right"))
}

func TestChangePassword_StaleAccountConflicts(t *testing.T) {
	ctx := context.Background()
	s, _ := newAccountService(t)
	a, err := s.Create(ctx, "alice")
	require.NoError(t, err)
	a, err = s.ResetPassword(ctx, a, "pw")
	require.NoError(t, err)

	_, err = s.ResetPassword(ctx, a, "other")
	require.NoError(t, err)

	// a still carries the old version
	_, err = s.ChangePassword(ctx, a, "pw", "mine")
	assert.ErrorIs(t, err, common.ErrVersionConflict)
}

func TestPasswordChangesRevokeSessions(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewMemoryRepositoryManager()
	s := NewAccountService(m, logging.Nop{})
	sessions := NewSessionService(m, &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Minute, RefreshTokenValidityDuration: time.Hour})

	a, err := s.Create(ctx, "alice")
	require.NoError(t, err)
	a, err = s.ResetPassword(ctx, a, "pw")
	require.NoError(t, err)

	pair, err := sessions.Issue(ctx, a.ID)
	require.NoError(t, err)

	_, err = s.ChangePassword(ctx, a, "pw", "pw2")
	require.NoError(t, err)

	_, err = sessions.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewMemoryRepositoryManager()
	s := NewAccountService(m, logging.Nop{})
	a, err := s.Create(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, m.RefreshTokens().Create(ctx, a.ID, "tok", time.Hour))

	require.NoError(t, s.Delete(ctx, a.ID))

	_, err = s.Get(ctx, a.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = m.RefreshTokens().Find(ctx, "tok")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, s.Delete(ctx, a.ID), common.ErrorNotFound)

	_, err = s.Authenticate(ctx, a.ID, "")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAuthenticate_UnknownAccountStillDerivesAKey(t *testing.T) {
	var secrets []string
	orig := verifyMissing
	verifyMissing = func(secret string) bool {
		secrets = append(secrets, secret)
		return false
	}
	t.Cleanup(func() { verifyMissing = orig })

	ctx := context.Background()
	s, _ := newAccountService(t)
	a, err := s.Create(ctx, "alice")
	require.NoError(t, err)

	ok, err := s.Authenticate(ctx, a.ID, "pw")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, secrets)

	_, err = s.Authenticate(ctx, uuid.NewString(), "pw")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, []string{"pw"}, secrets)
}
