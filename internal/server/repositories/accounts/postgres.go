package accounts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

const accountColumns = `id, name, configuration, password_hash, password_salt, kdf_params, version, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX, so it can be bound
// either to the pool or to a running transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var hash, salt, params []byte
	if err := row.Scan(&a.ID, &a.Name, &a.Configuration, &hash, &salt, &params, &a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if hash != nil {
		cred := &models.Credential{Hash: hash, Salt: salt}
		if err := json.Unmarshal(params, &cred.Params); err != nil {
			return nil, fmt.Errorf("decode kdf params: %w", err)
		}
		a.Credential = cred
	}
	return a, nil
}

func (r *PostgresRepository) lookup(ctx context.Context, where string, arg any) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where + ` = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) LookupByID(ctx context.Context, id string) (*models.Account, error) {
	return r.lookup(ctx, "id", id)
}

func (r *PostgresRepository) LookupByName(ctx context.Context, name string) (*models.Account, error) {
	return r.lookup(ctx, "name", name)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, name, configuration)
		VALUES ($1, $2, $3)
		RETURNING version, created_at, updated_at
	`
	out := a.Clone()
	err := r.db.QueryRowContext(ctx, query, a.ID, a.Name, string(a.Configuration)).
		Scan(&out.Version, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return nil, fmt.Errorf("account %q: %w", a.Name, common.ErrorConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Persist(ctx context.Context, a *models.Account) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET name = $2, configuration = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $4
		RETURNING version, updated_at
	`
	out := a.Clone()
	err := r.db.QueryRowContext(ctx, query, a.ID, a.Name, string(a.Configuration), a.Version).
		Scan(&out.Version, &out.UpdatedAt)
	if err != nil {
		return nil, r.updateError(ctx, a, err)
	}
	return out, nil
}

// Rename must run inside a transaction for the history row to be atomic
// with the name change.
func (r *PostgresRepository) Rename(ctx context.Context, a *models.Account, newName string) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET name = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3
		RETURNING version, updated_at
	`
	out := a.Clone()
	out.Name = newName
	if err := r.db.QueryRowContext(ctx, query, a.ID, newName, a.Version).Scan(&out.Version, &out.UpdatedAt); err != nil {
		return nil, r.updateError(ctx, out, err)
	}

	history := `
		INSERT INTO account_renames (account_id, old_name, new_name)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, history, a.ID, a.Name, newName); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) SetCredential(ctx context.Context, a *models.Account, cred *models.Credential) (*models.Account, error) {
	var hash, salt, params any
	if cred != nil {
		p, err := json.Marshal(cred.Params)
		if err != nil {
			return nil, fmt.Errorf("encode kdf params: %w", err)
		}
		hash, salt, params = cred.Hash, cred.Salt, string(p)
	}

	query := `
		UPDATE accounts
		SET password_hash = $2, password_salt = $3, kdf_params = $4, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $5
		RETURNING version, updated_at
	`
	out := a.Clone()
	out.Credential = cred.Clone()
	if err := r.db.QueryRowContext(ctx, query, a.ID, hash, salt, params, a.Version).Scan(&out.Version, &out.UpdatedAt); err != nil {
		return nil, r.updateError(ctx, a, err)
	}
	return out, nil
}

// Delete relies on ON DELETE CASCADE for refresh tokens and rename history.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// updateError classifies a failed compare-and-swap update. No row back means
// the account is gone or its version moved on.
func (r *PostgresRepository) updateError(ctx context.Context, a *models.Account, err error) error {
	if dbx.IsUniqueViolation(err, "") {
		return fmt.Errorf("account %q: %w", a.Name, common.ErrorConflict)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("db error: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return common.ErrorNotFound
	}
	return fmt.Errorf("account %s at version %d: %w", a.ID, a.Version, common.ErrVersionConflict)
}
