package services

import (
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"pizzeria/internal/apperr"
	"pizzeria/internal/models"
	"pizzeria/internal/store"
)

// AuthService handles user registration and login.
type AuthService struct {
	store  *store.Store
	tokens *TokenService
	log    zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(st *store.Store, tokens *TokenService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		store:  st,
		tokens: tokens,
		log:    logger,
	}
}

// Register creates a new user. The existence probe treats a not-found read
// as the expected non-error path; any other read failure propagates.
func (s *AuthService) Register(req models.RegisterRequest) (*models.User, error) {
	var existing models.User
	err := s.store.Read("users", req.Email, &existing)
	switch {
	case err == nil:
		return nil, apperr.New(apperr.KindConflict, "a user with that email address already exists")
	case errors.Is(err, store.ErrNotFound):
		// Expected: the user does not exist yet.
	default:
		return nil, apperr.Wrap(apperr.KindStore, "could not check for an existing user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not hash the user's password", err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Address:      req.Address,
	}
	if err := s.store.Create("users", user.Email, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, apperr.Wrap(apperr.KindConflict, "a user with that email address already exists", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not create the new user", err)
	}

	s.log.Info().Str("email", user.Email).Msg("user registered")
	return &user, nil
}

// Login authenticates the user and issues a fresh token. Unknown users and
// wrong passwords both report the same generic failure.
func (s *AuthService) Login(email, password string) (*models.Token, error) {
	var user models.User
	if err := s.store.Read("users", email, &user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindAuth, "invalid credentials", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Wrap(apperr.KindAuth, "invalid credentials", err)
	}

	token, err := s.tokens.Issue(email)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("email", email).Msg("token issued")
	return token, nil
}
