package service

import (
	"context"

	"github.com/BastienLeGuellec/PARROT-rating/internal/model"
	"github.com/BastienLeGuellec/PARROT-rating/internal/repository"
	"github.com/BastienLeGuellec/PARROT-rating/internal/users"
)

// Admin is the read-only viewer surface: user list and per-user logs. No
// write path is exposed here.
type Admin struct {
	users *users.Store
	log   *repository.ActionLog
}

// NewAdmin creates the admin service.
func NewAdmin(u *users.Store, log *repository.ActionLog) *Admin {
	return &Admin{users: u, log: log}
}

// ListUsers returns all provisioned users in file order.
func (s *Admin) ListUsers() []model.UserInfo {
	names := s.users.Usernames()
	out := make([]model.UserInfo, 0, len(names))
	for _, name := range names {
		u, _ := s.users.Get(name)
		out = append(out, model.UserInfo{Username: u.Username, Admin: u.Admin})
	}
	return out
}

// ReadLog returns a user's full action log. Events include the hidden flag:
// the admin is the scoring consumer, never a rater.
func (s *Admin) ReadLog(ctx context.Context, username string) ([]model.RatingEvent, error) {
	return s.log.EventsFor(ctx, username)
}
