package services_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzeria/internal/apperr"
	"pizzeria/internal/models"
	"pizzeria/internal/services"
	"pizzeria/internal/store"
)

func newCartFixture(t *testing.T) (*services.CartService, *store.Store) {
	t.Helper()
	st := store.New(afero.NewMemMapFs(), ".data")
	require.NoError(t, st.EnsureCollections("users", "tokens", "carts", "menus", "orders"))
	require.NoError(t, st.Create("menus", models.MenuID, models.Menu{"pizza": 1000, "soda": 250}))
	require.NoError(t, st.Create("users", "jane@example.com", models.User{
		Username: "jane",
		Email:    "jane@example.com",
		Address:  "12 High St",
	}))
	return services.NewCartService(st, zerolog.Nop()), st
}

func TestCartService_GetWithoutCart(t *testing.T) {
	svc, _ := newCartFixture(t)

	cart, err := svc.Get("jane@example.com")
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestCartService_ApplyCreatesCartLazily(t *testing.T) {
	svc, st := newCartFixture(t)

	cart, err := svc.Apply("jane@example.com", services.CartActionAdd, map[string]int{"pizza": 2})
	require.NoError(t, err)
	assert.Equal(t, models.Cart{"pizza": 2}, cart)

	// The cart id is now bound to the user and stays stable.
	var user models.User
	require.NoError(t, st.Read("users", "jane@example.com", &user))
	require.NotEmpty(t, user.CartID)
	firstCartID := user.CartID

	_, err = svc.Apply("jane@example.com", services.CartActionAdd, map[string]int{"soda": 1})
	require.NoError(t, err)
	require.NoError(t, st.Read("users", "jane@example.com", &user))
	assert.Equal(t, firstCartID, user.CartID)
}

func TestCartService_AddThenRemoveIsIdempotent(t *testing.T) {
	svc, _ := newCartFixture(t)

	_, err := svc.Apply("jane@example.com", services.CartActionAdd, map[string]int{"pizza": 2})
	require.NoError(t, err)
	cart, err := svc.Apply("jane@example.com", services.CartActionRemove, map[string]int{"pizza": 2})
	require.NoError(t, err)

	// No zero-quantity entry may remain.
	_, present := cart["pizza"]
	assert.False(t, present)
}

func TestCartService_RemoveDropsBelowOne(t *testing.T) {
	svc, _ := newCartFixture(t)

	_, err := svc.Apply("jane@example.com", services.CartActionAdd, map[string]int{"pizza": 1, "soda": 3})
	require.NoError(t, err)
	cart, err := svc.Apply("jane@example.com", services.CartActionRemove, map[string]int{"pizza": 5, "soda": 1})
	require.NoError(t, err)
	assert.Equal(t, models.Cart{"soda": 2}, cart)
}

func TestCartService_OverwriteReplacesWholesale(t *testing.T) {
	svc, _ := newCartFixture(t)

	_, err := svc.Apply("jane@example.com", services.CartActionAdd, map[string]int{"pizza": 2, "soda": 1})
	require.NoError(t, err)
	cart, err := svc.Apply("jane@example.com", services.CartActionOverwrite, map[string]int{"soda": 4})
	require.NoError(t, err)
	assert.Equal(t, models.Cart{"soda": 4}, cart)
}

func TestCartService_RejectsItemsNotOnMenu(t *testing.T) {
	svc, _ := newCartFixture(t)

	_, err := svc.Apply("jane@example.com", services.CartActionAdd, map[string]int{"sushi": 1})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Apply("jane@example.com", services.CartActionAdd, map[string]int{"pizza": 0})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Nothing was written: the user still has no cart.
	cart, err := svc.Get("jane@example.com")
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestCartService_Clear(t *testing.T) {
	svc, _ := newCartFixture(t)

	_, err := svc.Apply("jane@example.com", services.CartActionAdd, map[string]int{"pizza": 2})
	require.NoError(t, err)

	removed, err := svc.Clear("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.Cart{"pizza": 2}, removed)

	cart, err := svc.Get("jane@example.com")
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestCartService_UnknownUser(t *testing.T) {
	svc, _ := newCartFixture(t)

	_, err := svc.Get("ghost@example.com")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
