package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/tganiev/table-reservation/internal/model"
)

type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// Create registers an account in the unverified state with a pending
// verification token (already hashed by the caller).  When the email is
// taken by another unverified account, the pending row (username,
// credentials and token) is overwritten in place instead of duplicated.
// Only a verified account makes the email unavailable, reported as
// ErrEmailExists.
func (r *AccountRepo) Create(ctx context.Context, username, email, passwordHash, tokenHash string, tokenExp time.Time) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO accounts (username, email, password_hash, verify_token_hash, token_expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		username, email, passwordHash, tokenHash, tokenExp)
	if err == nil {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		return uint64(id), nil
	}
	if !isDuplicateKey(err) {
		return 0, err
	}

	// The email exists.  The UPDATE below succeeds only while the row is
	// still unverified, so a concurrent verification cannot be clobbered.
	upd, err2 := r.DB.ExecContext(ctx,
		`UPDATE accounts
		 SET username = ?, password_hash = ?, verify_token_hash = ?, token_expires_at = ?
		 WHERE email = ? AND is_verified = 0`,
		username, passwordHash, tokenHash, tokenExp, email)
	if err2 != nil {
		return 0, err2
	}
	n, err2 := upd.RowsAffected()
	if err2 != nil {
		return 0, err2
	}
	if n == 0 {
		return 0, ErrEmailExists
	}
	var id uint64
	if err2 := r.DB.QueryRowContext(ctx,
		"SELECT id FROM accounts WHERE email = ? LIMIT 1", email).Scan(&id); err2 != nil {
		return 0, err2
	}
	return id, nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var (
		a         model.Account
		tokenHash sql.NullString
		tokenExp  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, is_verified, verify_token_hash, token_expires_at, created_at, updated_at
		 FROM accounts WHERE email = ? LIMIT 1`,
		email).Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.IsVerified,
		&tokenHash, &tokenExp, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Account{}, err
	}
	if tokenHash.Valid {
		th := tokenHash.String
		a.VerifyTokenHash = &th
	}
	if tokenExp.Valid {
		te := tokenExp.Time
		a.TokenExpiresAt = &te
	}
	return a, nil
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	var (
		a         model.Account
		tokenHash sql.NullString
		tokenExp  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, is_verified, verify_token_hash, token_expires_at, created_at, updated_at
		 FROM accounts WHERE id = ? LIMIT 1`,
		id).Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.IsVerified,
		&tokenHash, &tokenExp, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Account{}, err
	}
	if tokenHash.Valid {
		th := tokenHash.String
		a.VerifyTokenHash = &th
	}
	if tokenExp.Valid {
		te := tokenExp.Time
		a.TokenExpiresAt = &te
	}
	return a, nil
}

// Verify consumes a verification token: on a matching, unexpired token
// the account flips to verified and the token is cleared.  A wrong or
// missing token yields ErrTokenInvalid, a matching but stale one
// ErrTokenExpired; neither changes the account.
func (r *AccountRepo) Verify(ctx context.Context, email, tokenHash string, now time.Time) error {
	email = strings.ToLower(strings.TrimSpace(email))
	var (
		storedHash sql.NullString
		expiresAt  sql.NullTime
		isVerified bool
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT verify_token_hash, token_expires_at, is_verified FROM accounts WHERE email = ? LIMIT 1",
		email).Scan(&storedHash, &expiresAt, &isVerified)
	if err == sql.ErrNoRows {
		return ErrTokenInvalid
	}
	if err != nil {
		return err
	}
	if isVerified || !storedHash.Valid || storedHash.String != tokenHash {
		return ErrTokenInvalid
	}
	if !expiresAt.Valid || now.After(expiresAt.Time) {
		return ErrTokenExpired
	}
	// Match the token hash again in the WHERE clause so a re-registration
	// that rotated the token between the read and this write cannot be
	// verified by the stale token.
	upd, err := r.DB.ExecContext(ctx,
		`UPDATE accounts SET is_verified = 1, verify_token_hash = NULL, token_expires_at = NULL
		 WHERE email = ? AND verify_token_hash = ? AND is_verified = 0`,
		email, tokenHash)
	if err != nil {
		return err
	}
	n, err := upd.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenInvalid
	}
	return nil
}
