package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/BastienLeGuellec/PARROT-rating/internal/model"
	"github.com/BastienLeGuellec/PARROT-rating/internal/pkg/jwt"
	"github.com/BastienLeGuellec/PARROT-rating/internal/repository"
	"github.com/BastienLeGuellec/PARROT-rating/internal/users"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Auth verifies raters against the provisioned user table and issues
// tokens. Login attempts are recorded in the action log, as the original
// audit trail did.
type Auth struct {
	users *users.Store
	log   *repository.ActionLog
}

// NewAuth creates the auth service.
func NewAuth(u *users.Store, log *repository.ActionLog) *Auth {
	return &Auth{users: u, log: log}
}

// Login authenticates a user and returns a JWT token.
func (a *Auth) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	if !a.users.Verify(username, password) {
		// Only known usernames get a fail row; audit rows for arbitrary
		// strings would let anyone grow the log.
		if _, known := a.users.Get(username); known {
			a.audit(ctx, username, model.ActionLoginFail)
		}
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(username)
	if err != nil {
		return nil, err
	}

	a.audit(ctx, username, model.ActionLoginSuccess)

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User: &model.UserInfo{
			Username: username,
			Admin:    a.users.IsAdmin(username),
		},
	}, nil
}

// Logout records the logout audit row.
func (a *Auth) Logout(ctx context.Context, username string) {
	a.audit(ctx, username, model.ActionLogout)
}

// CurrentUser returns the user info for a validated token subject.
func (a *Auth) CurrentUser(username string) (*model.UserInfo, error) {
	u, ok := a.users.Get(username)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return &model.UserInfo{Username: u.Username, Admin: u.Admin}, nil
}

// IsAdmin reports whether the named user holds the admin flag.
func (a *Auth) IsAdmin(username string) bool {
	return a.users.IsAdmin(username)
}

func (a *Auth) audit(ctx context.Context, username, action string) {
	if err := a.log.Append(ctx, username, action); err != nil {
		zap.L().Warn("failed to append audit event",
			zap.String("username", username),
			zap.String("action", action),
			zap.Error(err))
	}
}
