package services

import (
	"context"
	"database/sql"
	"errors"

	"freshmart/internal/domain"
	"freshmart/internal/repos"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

// CurrentUser returns nil for an anonymous session.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	u, err := s.Users.SessionUser(ctx, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}
