// Package account is the credential issuance collaborator: registration,
// login and token verification. The routing core only consumes Verify.
package account

import (
	"fmt"
	"log/slog"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
)

type Token string

type Service struct {
	users  repositories.IUserRepository
	tokens *auth.TokenManager
	log    *slog.Logger
}

func NewService(users repositories.IUserRepository, tokens *auth.TokenManager, log *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, log: log}
}

func (s *Service) Register(req auth.RegisterRequest) (domain.User, Token, error) {
	// Validate before any expensive cryptographic operation.
	if err := auth.ValidateRegister(req); err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing happens here so the repository never sees plain passwords.
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.users.Create(req.Username, req.Email, req.Avatar, hashedPassword)
	if err != nil {
		return domain.User{}, "", err // Propagates ErrUserAlreadyExists when the email is taken.
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}
	return user, Token(token), nil
}

func (s *Service) Login(req auth.LoginRequest) (domain.User, Token, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	user, hash, err := s.users.FindByEmail(req.Email)
	if err != nil {
		// Generic error to prevent user enumeration attacks.
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(req.Password, hash)
	if err != nil || !match {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}
	return user, Token(token), nil
}

// Verify resolves a token to its user id. This is the contract the
// connection handshake consumes.
func (s *Service) Verify(token string) (string, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return "", errors.ErrAuthenticationFailed
	}
	return claims.UserID, nil
}
