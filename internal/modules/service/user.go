package service

import (
	"context"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
)

type UserService interface {
	// Authenticate returns the user behind an already verified token id.
	Authenticate(ctx context.Context, userID uint) (*model.User, error)
	Create(ctx context.Context, nickname string) (*model.User, error)
	Deactivate(ctx context.Context, userID uint) error
}

type userService struct {
	r repo.UserRepo
}

func NewUserService(r repo.UserRepo) UserService {
	return &userService{r: r}
}

func (s *userService) Authenticate(ctx context.Context, userID uint) (*model.User, error) {
	u, err := s.r.Get(ctx, userID)
	if repo.IsNotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive() {
		return nil, ErrUserInactive
	}
	return u, nil
}

func (s *userService) Create(ctx context.Context, nickname string) (*model.User, error) {
	u := &model.User{Nickname: nickname, Status: model.UserStatusActive}
	if err := s.r.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Deactivate(ctx context.Context, userID uint) error {
	if _, err := s.r.Get(ctx, userID); err != nil {
		if repo.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return s.r.UpdateStatus(ctx, userID, model.UserStatusInactive)
}
