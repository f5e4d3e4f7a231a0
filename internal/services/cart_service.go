package services

import (
	"errors"

	"github.com/rs/zerolog"

	"pizzeria/internal/apperr"
	"pizzeria/internal/models"
	"pizzeria/internal/random"
	"pizzeria/internal/store"
)

// Cart actions accepted by Apply.
const (
	CartActionAdd       = "add"
	CartActionRemove    = "remove"
	CartActionOverwrite = "overwrite"
)

// CartService mutates a user's cart in place. Carts are created lazily the
// first time they are touched; the cart id is then stable for the user's
// lifetime. Concurrent mutations of the same cart are last writer wins.
type CartService struct {
	store *store.Store
	log   zerolog.Logger
}

// NewCartService creates a new CartService.
func NewCartService(st *store.Store, logger zerolog.Logger) *CartService {
	return &CartService{store: st, log: logger}
}

// Get returns the user's cart. A user whose cart has never been touched
// gets an empty cart, not an error.
func (s *CartService) Get(email string) (models.Cart, error) {
	user, err := s.readUser(email)
	if err != nil {
		return nil, err
	}
	if user.CartID == "" {
		return models.Cart{}, nil
	}
	return s.readCart(user.CartID)
}

// Apply validates items against the menu and then mutates the cart
// according to action: add increases or inserts quantities, remove
// decreases them and drops keys falling below 1, overwrite replaces the
// cart wholesale. Returns the resulting cart.
func (s *CartService) Apply(email, action string, items map[string]int) (models.Cart, error) {
	if len(items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "at least one item is required")
	}

	var menu models.Menu
	if err := s.store.Read("menus", models.MenuID, &menu); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "could not read the menu", err)
	}
	for name, qty := range items {
		if _, ok := menu[name]; !ok || qty < 1 {
			return nil, apperr.New(apperr.KindValidation, "some of the items supplied are invalid or undefined")
		}
	}

	user, err := s.readUser(email)
	if err != nil {
		return nil, err
	}
	cartID, err := s.ensureCart(user)
	if err != nil {
		return nil, err
	}
	cart, err := s.readCart(cartID)
	if err != nil {
		return nil, err
	}

	switch action {
	case CartActionAdd:
		for name, qty := range items {
			cart[name] += qty
		}
	case CartActionRemove:
		for name, qty := range items {
			if _, ok := cart[name]; !ok {
				continue
			}
			cart[name] -= qty
			if cart[name] < 1 {
				delete(cart, name)
			}
		}
	default:
		cart = models.Cart{}
		for name, qty := range items {
			cart[name] = qty
		}
	}

	if err := s.store.Update("carts", cartID, cart); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "could not update the cart", err)
	}
	return cart, nil
}

// Clear empties the cart and returns the items that were removed. A user
// with no cart yet has nothing to clear.
func (s *CartService) Clear(email string) (models.Cart, error) {
	user, err := s.readUser(email)
	if err != nil {
		return nil, err
	}
	if user.CartID == "" {
		return models.Cart{}, nil
	}
	removed, err := s.readCart(user.CartID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Update("carts", user.CartID, models.Cart{}); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "could not clear the cart", err)
	}
	return removed, nil
}

func (s *CartService) readUser(email string) (*models.User, error) {
	var user models.User
	if err := s.store.Read("users", email, &user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "user not found", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the user", err)
	}
	return &user, nil
}

func (s *CartService) readCart(cartID string) (models.Cart, error) {
	var cart models.Cart
	if err := s.store.Read("carts", cartID, &cart); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "could not read the cart", err)
	}
	return cart, nil
}

// ensureCart creates an empty cart and binds it to the user on first touch.
func (s *CartService) ensureCart(user *models.User) (string, error) {
	if user.CartID != "" {
		return user.CartID, nil
	}
	cartID, err := random.ID()
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "could not generate the new cart id", err)
	}
	if err := s.store.Create("carts", cartID, models.Cart{}); err != nil {
		return "", apperr.Wrap(apperr.KindStore, "could not create the cart", err)
	}
	user.CartID = cartID
	if err := s.store.Update("users", user.Email, user); err != nil {
		return "", apperr.Wrap(apperr.KindStore, "could not bind the cart to the user", err)
	}
	s.log.Debug().Str("email", user.Email).Str("cart", cartID).Msg("cart created")
	return cartID, nil
}
