package services

import (
	"context"

	"pairchat/domain/chat"
	"pairchat/repositories"

	"github.com/samber/lo"
)

type IUserService interface {
	ListUsers(ctx context.Context, requesterID chat.UserID) ([]chat.Participant, error)
}

type UserService struct {
	userRepository repositories.IUserRepository
}

func NewUserService(repo repositories.IUserRepository) *UserService {
	return &UserService{userRepository: repo}
}

// ListUsers returns the public identifiers of every user.
// The requester only has to be authenticated.
func (s *UserService) ListUsers(_ context.Context, _ chat.UserID) ([]chat.Participant, error) {
	users, err := s.userRepository.ListUsers()
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u chat.User, _ int) chat.Participant {
		return u.Participant()
	}), nil
}
