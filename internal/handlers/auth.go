// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio/internal/apperr"
	"portfolio/internal/auth"
	"portfolio/internal/models"
	"portfolio/internal/store"
)

// degradedUserID is embedded in tokens issued from the bootstrap secret
// while the user store is unreachable.
const degradedUserID = "bootstrap"

// TokenIssuer signs bearer tokens. *auth.Tokens implements it.
type TokenIssuer interface {
	Issue(userID, username string) (string, error)
}

// Auth exchanges credentials for bearer tokens.
type Auth struct {
	users         store.Users
	tokens        TokenIssuer
	bootstrapHash string
	checkPassword func(hash, password string) bool
	now           func() time.Time
	newID         func() string
}

// NewAuth creates the login handler. bootstrapHash is the bcrypt hash that
// lets the "admin" account be provisioned on first login; empty disables it.
func NewAuth(users store.Users, tokens TokenIssuer, bootstrapHash string) *Auth {
	return &Auth{
		users:         users,
		tokens:        tokens,
		bootstrapHash: bootstrapHash,
		checkPassword: auth.CheckPassword,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginUser struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

// invalidCredentials never says which half of the pair was wrong.
func invalidCredentials() error {
	return apperr.Unauthorized("Invalid credentials", "")
}

// Login verifies a username/password pair and returns a signed token.
//
// A stored user is checked against its own hash. When no user exists and
// the username is the bootstrap admin, the configured bootstrap hash is
// checked and the account is created. When the user lookup itself fails,
// the bootstrap hash is still honored so an outage of the user index does
// not lock the admin out; no account is created in that case.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return apperr.Validation("Username and password are required")
	}

	ctx := r.Context()
	user, err := a.users.FindByUsername(ctx, req.Username)
	switch {
	case err != nil:
		slog.Error("user lookup failed, trying bootstrap credentials", "error", err)
		if !a.bootstrapMatches(req) {
			slog.Warn("login failed", "username", req.Username)
			return invalidCredentials()
		}
		return a.respond(w, degradedUserID, req.Username)

	case user != nil:
		if !a.checkPassword(user.PasswordHash, req.Password) {
			slog.Warn("login failed", "username", req.Username)
			return invalidCredentials()
		}
		return a.respond(w, user.ID, user.Username)

	case a.bootstrapMatches(req):
		admin := &models.User{
			ID:           a.newID(),
			Username:     models.BootstrapUsername,
			PasswordHash: a.bootstrapHash,
			Role:         models.RoleAdmin,
			CreatedAt:    a.now().UnixMilli(),
		}
		if err := a.users.Create(ctx, admin); err != nil {
			slog.Error("bootstrap admin provisioning failed", "error", err)
			return a.respond(w, degradedUserID, req.Username)
		}
		slog.Info("bootstrap admin provisioned", "user_id", admin.ID)
		return a.respond(w, admin.ID, admin.Username)

	default:
		slog.Warn("login failed", "username", req.Username)
		return invalidCredentials()
	}
}

// bootstrapMatches reports whether req is the bootstrap admin presenting
// the configured bootstrap password. Every call runs exactly one bcrypt
// comparison, so unknown usernames are not told apart by response time.
func (a *Auth) bootstrapMatches(req loginRequest) bool {
	if req.Username != models.BootstrapUsername || a.bootstrapHash == "" {
		a.checkPassword(auth.DummyHash(), req.Password)
		return false
	}
	return a.checkPassword(a.bootstrapHash, req.Password)
}

func (a *Auth) respond(w http.ResponseWriter, userID, username string) error {
	token, err := a.tokens.Issue(userID, username)
	if err != nil {
		return apperr.Upstream(err)
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  loginUser{Username: username, UserID: userID},
	})
	return nil
}
