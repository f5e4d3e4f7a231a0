package services

import (
	"errors"
	"time"

	"pizzeria/internal/apperr"
	"pizzeria/internal/models"
	"pizzeria/internal/random"
	"pizzeria/internal/store"
)

// ErrTokenExpired reports an extend call on a token whose expiry has
// already passed. Expired tokens cannot be renewed, only re-issued.
var ErrTokenExpired = errors.New("token has already expired")

// TokenService issues, verifies, extends and revokes bearer tokens. Tokens
// are stored entities: verification is a store lookup, extension mutates
// the stored expiry, revocation deletes the record.
type TokenService struct {
	store *store.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewTokenService creates a TokenService. ttl is the lifetime of issued and
// extended tokens.
func NewTokenService(st *store.Store, ttl time.Duration) *TokenService {
	return &TokenService{
		store: st,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Issue creates a token for email expiring ttl from now.
func (s *TokenService) Issue(email string) (*models.Token, error) {
	id, err := random.ID()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not generate the new token id", err)
	}
	token := models.Token{
		ID:      id,
		Email:   email,
		Expires: s.now().Add(s.ttl),
	}
	if err := s.store.Create("tokens", id, token); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "could not create the new token", err)
	}
	return &token, nil
}

// Get looks up a token by id.
func (s *TokenService) Get(id string) (*models.Token, error) {
	var token models.Token
	if err := s.store.Read("tokens", id, &token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "token not found", err)
		}
		if errors.Is(err, store.ErrCorrupt) {
			return nil, apperr.Wrap(apperr.KindCorrupt, "the token record is corrupt", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the token", err)
	}
	return &token, nil
}

// Verify reports whether id names a live token bound to email. It fails
// closed: an absent, unreadable, mismatched or expired token is simply not
// valid. This is the sole authorization gate for authenticated operations.
func (s *TokenService) Verify(id, email string) bool {
	if id == "" {
		return false
	}
	var token models.Token
	if err := s.store.Read("tokens", id, &token); err != nil {
		return false
	}
	return token.Email == email && token.Expires.After(s.now())
}

// Extend resets the token's expiry to ttl from now. A token whose expiry
// has passed (or is exactly now) cannot be extended.
func (s *TokenService) Extend(id string) (*models.Token, error) {
	var token models.Token
	if err := s.store.Read("tokens", id, &token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "specified token does not exist", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the token", err)
	}
	if !token.Expires.After(s.now()) {
		return nil, apperr.Wrap(apperr.KindValidation, "the token has already expired and cannot be extended", ErrTokenExpired)
	}
	token.Expires = s.now().Add(s.ttl)
	if err := s.store.Update("tokens", id, token); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "could not update the token's expiration", err)
	}
	return &token, nil
}

// Revoke deletes the token and returns its last stored state.
func (s *TokenService) Revoke(id string) (*models.Token, error) {
	var token models.Token
	if err := s.store.Read("tokens", id, &token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "could not find the specified token", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the token", err)
	}
	if err := s.store.Delete("tokens", id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "could not find the specified token", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not delete the specified token", err)
	}
	return &token, nil
}
