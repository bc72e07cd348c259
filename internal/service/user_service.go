package service

import (
	"context"
	"errors"
	"fmt"

	"directory-service/internal/entity"
	"directory-service/internal/repository"
)

// TokenIssuer signs bearer tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// Registration is the body of an account creation request.
type Registration struct {
	UserID   string `json:"userID"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserService struct {
	profiles ProfileStore
	tokens   TokenIssuer
	catalog  *Catalog
}

func NewUserService(profiles ProfileStore, tokens TokenIssuer, catalog *Catalog) *UserService {
	return &UserService{profiles: profiles, tokens: tokens, catalog: catalog}
}

// Register creates a user account and returns its stored id.
func (s *UserService) Register(ctx context.Context, reg Registration) (string, error) {
	if reg.UserID == "" || reg.Name == "" || reg.Email == "" || reg.Password == "" {
		return "", ErrValidation
	}

	storedID, err := s.profiles.CreateUser(ctx, reg.UserID, reg.Name, reg.Email, reg.Password)
	if errors.Is(err, repository.ErrUserExists) {
		return "", fmt.Errorf("%w: user %s", ErrDuplicate, reg.UserID)
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating user %s", reg.UserID)
		return "", err
	}
	return storedID, nil
}

// Login checks the credential and returns a bearer token for userID.
func (s *UserService) Login(ctx context.Context, userID, password string) (string, error) {
	if userID == "" || password == "" {
		return "", ErrValidation
	}

	user, found, err := s.profiles.FindByUserID(ctx, userID, true)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting user %s", userID)
		return "", err
	}
	if !found || !s.profiles.VerifyCredential(password, user.Password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(userID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error issuing token for %s", userID)
		return "", err
	}
	return token, nil
}

// Profile returns userID's profile without its credential. requester must be userID.
func (s *UserService) Profile(ctx context.Context, requester, userID string) (*entity.UserProfile, error) {
	if requester != userID {
		return nil, ErrForbidden
	}

	user, found, err := s.profiles.FindByUserID(ctx, userID, false)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting user %s", userID)
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return user, nil
}

// OwnedResources lists the rows of relation owned by userID.
func (s *UserService) OwnedResources(ctx context.Context, userID, relation string) ([]entity.Record, error) {
	svc, ok := s.catalog.OwnedBy(relation)
	if !ok {
		return nil, ErrNotFound
	}
	return svc.ListByOwner(ctx, userID)
}
