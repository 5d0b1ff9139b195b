package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"pairchat/auth"
	"pairchat/domain/chat"
	"pairchat/errors"
	"pairchat/repositories"
)

type IAuthService interface {
	Register(ctx context.Context, username, password string) (chat.Participant, error)
	Login(ctx context.Context, username, password string) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (Token, error)
}

type Token string

type TokenPair struct {
	Access  Token
	Refresh Token
}

type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	tokens         *auth.TokenIssuer
	clock          chat.Clock
}

func NewAuthService(log *slog.Logger, repo repositories.IUserRepository,
	tokens *auth.TokenIssuer, clock chat.Clock) IAuthService {
	return &AuthService{log: log, userRepository: repo, tokens: tokens, clock: clock}
}

// Register validates the credential format, hashes the password and stores the user.
// The returned representation never carries the password.
func (s *AuthService) Register(ctx context.Context, username, password string) (chat.Participant, error) {
	// Checked before any expensive cryptographic operation.
	if err := auth.ValidateRegister(auth.RegisterRequest{Username: username, Password: password}); err != nil {
		return chat.Participant{}, err
	}
	if err := ctx.Err(); err != nil {
		return chat.Participant{}, err
	}

	// Hashing stays in the service so the repository never sees plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return chat.Participant{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(username, hashedPassword, s.clock.Now())
	if err != nil {
		return chat.Participant{}, err // ErrDuplicateUsername if the username is taken
	}

	s.log.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user.Participant(), nil
}

func (s *AuthService) Login(_ context.Context, username, password string) (TokenPair, error) {
	user, err := s.userRepository.GetUserByUsername(username)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		// Same error as a wrong password to prevent user enumeration
		return TokenPair{}, errors.ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, err
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return TokenPair{}, errors.ErrInvalidCredentials
	}

	access, err := s.tokens.GenerateToken(user.ID, auth.AccessToken)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.GenerateToken(user.ID, auth.RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: Token(access), Refresh: Token(refresh)}, nil
}

// Refresh trades a valid refresh token for a new access token,
// provided the user still exists.
func (s *AuthService) Refresh(_ context.Context, refreshToken string) (Token, error) {
	userID, err := s.tokens.ValidateToken(refreshToken, auth.RefreshToken)
	if err != nil {
		return "", err
	}

	users, err := s.userRepository.GetUsersByIDs([]chat.UserID{userID})
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", fmt.Errorf("%w: user %d no longer exists", errors.ErrInvalidToken, userID)
	}

	access, err := s.tokens.GenerateToken(userID, auth.AccessToken)
	if err != nil {
		return "", err
	}
	return Token(access), nil
}
