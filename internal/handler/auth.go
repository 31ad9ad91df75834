package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/tganiev/table-reservation/internal/config"
	"github.com/tganiev/table-reservation/internal/mailer"
	"github.com/tganiev/table-reservation/internal/repository"
	"github.com/tganiev/table-reservation/internal/utils"
)

// AuthHandler bundles dependencies for registration, email
// verification and session endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
	Tokens   *repository.TokenRepo
	Mail     mailer.Mailer
}

func NewAuthHandler(cfg config.Config, a *repository.AccountRepo, t *repository.TokenRepo, m mailer.Mailer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: a, Tokens: t, Mail: m}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type accountPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
type authResp struct {
	Account accountPart `json:"account"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

// Usernames allow Latin and Cyrillic letters plus spaces, 2-50 chars.
// The email pattern matches the loose anything@anything.anything shape;
// real ownership is proven by the verification mail, not the regexp.
var (
	usernameRe = regexp.MustCompile(`^[A-Za-zА-Яа-яЁё ]{2,50}$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// validateRegistration checks the registration input rules and returns
// the offending field and a user-facing message, or two empty strings.
func validateRegistration(username, email, password string) (string, string) {
	if !usernameRe.MatchString(username) {
		return "username", "username must be 2-50 letters (Latin or Cyrillic) and spaces"
	}
	if !emailRe.MatchString(email) {
		return "email", "invalid email address"
	}
	if len(password) < 8 || len(password) > 50 {
		return "password", "password must be 8-50 characters"
	}
	for _, r := range password {
		if unicode.IsSpace(r) {
			return "password", "password must not contain whitespace"
		}
	}
	return "", ""
}

// Register creates an unverified account and mails a verification
// token.  Registering an email that belongs to an unverified account
// replaces its pending credentials and token; a verified email is a
// conflict.  The account is created before the mail goes out, so a mail
// failure leaves a re-registrable unverified row, never a verified one.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if field, msg := validateRegistration(req.Username, req.Email, req.Password); field != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "field": field})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}
	rawToken, err := utils.NewToken(32)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}
	tokenExp := time.Now().UTC().Add(time.Duration(h.Cfg.VerifyTTLMin) * time.Minute)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, err = h.Accounts.Create(ctx, req.Username, req.Email, hash, utils.HashToken(rawToken), tokenExp)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}

	if err := h.Mail.SendVerification(ctx, req.Email, req.Username, rawToken); err != nil {
		log.Printf("auth: verification mail to %s failed: %v", req.Email, err)
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "could not send verification email, please try registering again",
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "verification email sent, confirm your address within one hour",
	})
}

// Verify consumes a verification token from the mailed link.  Expired
// and invalid tokens are distinct outcomes; neither activates the
// account.
func (h *AuthHandler) Verify(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.QueryParam("email")))
	token := strings.TrimSpace(c.QueryParam("token"))
	if email == "" || token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Accounts.Verify(ctx, email, utils.HashToken(token), time.Now().UTC())
	switch {
	case errors.Is(err, repository.ErrTokenExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification link expired, register again to get a new one"})
	case errors.Is(err, repository.ErrTokenInvalid):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid verification link"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email confirmed, you can log in now"})
}

// Login verifies credentials and returns a token pair.  Unknown email
// and wrong password collapse into one message so the endpoint does not
// leak which addresses have accounts; an unverified account is a
// distinct, actionable error.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(a.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}
	if !a.IsVerified {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email not verified"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, a.ID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		Account: accountPart{ID: a.ID, Username: a.Username, Email: a.Email},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// Refresh validates a refresh token by hash, revokes it and issues a
// new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashToken(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	accountID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	a, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, accountID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, accountID, utils.HashToken(newRef.Raw), newRef.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		Account: accountPart{ID: a.ID, Username: a.Username, Email: a.Email},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
	})
}

// Logout revokes the presented refresh token, ending that session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashToken(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated account's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
	}
	return c.JSON(http.StatusOK, accountPart{ID: a.ID, Username: a.Username, Email: a.Email})
}
