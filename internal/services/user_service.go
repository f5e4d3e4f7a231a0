package services

import (
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"pizzeria/internal/apperr"
	"pizzeria/internal/models"
	"pizzeria/internal/store"
)

// UserService reads, updates and deletes user records.
type UserService struct {
	store *store.Store
	log   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(st *store.Store, logger zerolog.Logger) *UserService {
	return &UserService{store: st, log: logger}
}

// Get looks up a user by email. Callers mask the password hash before
// returning the record to a client.
func (s *UserService) Get(email string) (*models.User, error) {
	var user models.User
	if err := s.store.Read("users", email, &user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "user not found", err)
		}
		if errors.Is(err, store.ErrCorrupt) {
			return nil, apperr.Wrap(apperr.KindCorrupt, "the user record is corrupt", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the user", err)
	}
	return &user, nil
}

// Update applies the optional fields of req to the stored user. At least
// one of username, password or address must be set, which the handler has
// already checked.
func (s *UserService) Update(req models.UpdateUserRequest) (*models.User, error) {
	var user models.User
	if err := s.store.Read("users", req.Email, &user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "the specified user does not exist", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the user", err)
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not hash the user's password", err)
		}
		user.PasswordHash = string(hash)
	}
	if req.Address != "" {
		user.Address = req.Address
	}

	if err := s.store.Update("users", req.Email, user); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "could not update the user", err)
	}
	return &user, nil
}

// Delete removes the user along with their cart and all their orders. The
// cascade is best-effort in the same sense as the order writes: a failure
// partway leaves earlier deletions committed and is reported to the caller.
func (s *UserService) Delete(email string) (*models.User, error) {
	var user models.User
	if err := s.store.Read("users", email, &user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "could not find the specified user", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the user", err)
	}

	if err := s.store.Delete("users", email); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "could not delete the specified user", err)
	}

	if user.CartID != "" {
		if err := s.store.Delete("carts", user.CartID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindStore, "could not delete the user's cart", err)
		}
	}
	for _, orderID := range user.Orders {
		if err := s.store.Delete("orders", orderID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindStore, "could not delete all of the user's orders", err)
		}
	}

	s.log.Info().Str("email", email).Int("orders", len(user.Orders)).Msg("user deleted")
	return &user, nil
}
