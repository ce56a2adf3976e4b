package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mstreet/couponclip/internal/domain/model"
	"github.com/mstreet/couponclip/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the SQLite implementation of the AccountStore port. The
// encrypted_password column is stored and returned verbatim; encryption and
// decryption belong to the secret package, outside the store.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// ListIDs returns every account ID in the store, ordered.
func (r *AccountRepo) ListIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT id FROM accounts ORDER BY id`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list account ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account ids: %w", err)
	}

	return ids, nil
}

// GetByID returns the account with the given ID.
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (model.Account, error) {
	const query = `SELECT id, username, encrypted_password, created_at, updated_at FROM accounts WHERE id = ?`
	return r.scanOne(r.db.Reader.QueryRowContext(ctx, query, id), fmt.Sprintf("id %d", id))
}

// GetByUsername returns the account with the given username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (model.Account, error) {
	const query = `SELECT id, username, encrypted_password, created_at, updated_at FROM accounts WHERE username = ?`
	return r.scanOne(r.db.Reader.QueryRowContext(ctx, query, username), fmt.Sprintf("username %q", username))
}

// List returns all accounts ordered by ID.
func (r *AccountRepo) List(ctx context.Context) ([]model.Account, error) {
	const query = `SELECT id, username, encrypted_password, created_at, updated_at FROM accounts ORDER BY id`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var acct model.Account
		var createdAt, updatedAt string
		if err := rows.Scan(&acct.ID, &acct.Username, &acct.EncryptedPassword, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if acct.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for account %d: %w", acct.ID, err)
		}
		if acct.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at for account %d: %w", acct.ID, err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// Create inserts a new account and returns its assigned ID.
func (r *AccountRepo) Create(ctx context.Context, username, encryptedPassword string) (int64, error) {
	const query = `INSERT INTO accounts (username, encrypted_password) VALUES (?, ?)`
	res, err := r.db.Writer.ExecContext(ctx, query, username, encryptedPassword)
	if err != nil {
		return 0, fmt.Errorf("create account %q: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account %q insert id: %w", username, err)
	}
	return id, nil
}

// Delete removes the account with the given ID.
func (r *AccountRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM accounts WHERE id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}

func (r *AccountRepo) scanOne(row *sql.Row, desc string) (model.Account, error) {
	var acct model.Account
	var createdAt, updatedAt string
	err := row.Scan(&acct.ID, &acct.Username, &acct.EncryptedPassword, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("account %s: %w", desc, driven.ErrAccountNotFound)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("get account %s: %w", desc, err)
	}

	if acct.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Account{}, fmt.Errorf("parse created_at for account %s: %w", desc, err)
	}
	if acct.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Account{}, fmt.Errorf("parse updated_at for account %s: %w", desc, err)
	}

	return acct, nil
}
