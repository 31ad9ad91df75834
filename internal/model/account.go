package model

import "time"

// Account represents a row in the `accounts` table.  An account is
// created unverified by registration and may only log in once the
// email address has been confirmed with a verification token.  The
// plain token is never stored; only its SHA-256 hash.
//
// Fields:
//  ID              – primary key identifier.
//  Username        – display name (letters and spaces, 2–50 chars).
//  Email           – unique email address, lower-cased.
//  PasswordHash    – bcrypt hashed password.
//  IsVerified      – whether the email has been confirmed.
//  VerifyTokenHash – SHA-256 hex digest of the pending token (nil once verified).
//  TokenExpiresAt  – expiry of the pending token (nil once verified).
//  CreatedAt       – timestamp of creation.
//  UpdatedAt       – timestamp of last update.
type Account struct {
	ID              uint64     // accounts.id
	Username        string     // accounts.username
	Email           string     // accounts.email
	PasswordHash    string     // accounts.password_hash
	IsVerified      bool       // accounts.is_verified
	VerifyTokenHash *string    // accounts.verify_token_hash (nullable)
	TokenExpiresAt  *time.Time // accounts.token_expires_at (nullable)
	CreatedAt       time.Time  // accounts.created_at
	UpdatedAt       time.Time  // accounts.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to an account and carries expiry and
// revocation metadata.  Only the SHA-256 hash of the token is stored.
//
// Fields:
//  ID        – primary key identifier.
//  AccountID – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	AccountID uint64     // refresh_tokens.account_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
