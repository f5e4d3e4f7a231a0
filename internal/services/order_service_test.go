package services_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pizzeria/internal/apperr"
	"pizzeria/internal/gateway"
	"pizzeria/internal/models"
	"pizzeria/internal/services"
	"pizzeria/internal/store"
)

type mockPaymentGateway struct {
	mock.Mock
}

func (m *mockPaymentGateway) Charge(ctx context.Context, req gateway.ChargeRequest) (*models.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChargeResult), args.Error(1)
}

type mockNotificationGateway struct {
	mock.Mock
}

func (m *mockNotificationGateway) Send(ctx context.Context, msg gateway.Message) (*models.MessageResult, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MessageResult), args.Error(1)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishOrderPlaced(event any) error {
	args := m.Called(event)
	return args.Error(0)
}

const testCartID = "cartcartcartcart0001"

type orderFixture struct {
	svc      *services.OrderService
	store    *store.Store
	payments *mockPaymentGateway
	notifier *mockNotificationGateway
	events   *mockEventPublisher
}

// newOrderFixture seeds a user whose cart holds two pizzas and a soda,
// priced 1000 and 250 on the menu.
func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	st := store.New(afero.NewMemMapFs(), ".data")
	return newOrderFixtureWithStore(t, st)
}

func newOrderFixtureWithStore(t *testing.T, st *store.Store) *orderFixture {
	t.Helper()
	require.NoError(t, st.EnsureCollections("users", "carts", "menus", "orders"))
	require.NoError(t, st.Create("menus", models.MenuID, models.Menu{"pizza": 1000, "soda": 250}))
	require.NoError(t, st.Create("carts", testCartID, models.Cart{"pizza": 2, "soda": 1}))
	require.NoError(t, st.Create("users", "jane@example.com", models.User{
		Username: "jane",
		Email:    "jane@example.com",
		Address:  "12 High St",
		CartID:   testCartID,
	}))

	f := &orderFixture{
		store:    st,
		payments: new(mockPaymentGateway),
		notifier: new(mockNotificationGateway),
		events:   new(mockEventPublisher),
	}
	f.svc = services.NewOrderService(st, f.payments, f.notifier, f.events, nil, zerolog.Nop(), services.OrderServiceConfig{
		Currency: "nzd",
		Source:   "tok_visa",
	})
	return f
}

func (f *orderFixture) cart(t *testing.T) models.Cart {
	t.Helper()
	var cart models.Cart
	require.NoError(t, f.store.Read("carts", testCartID, &cart))
	return cart
}

func TestOrderService_Place(t *testing.T) {
	f := newOrderFixture(t)

	f.payments.On("Charge", mock.Anything, mock.MatchedBy(func(req gateway.ChargeRequest) bool {
		return req.Amount == 1250 && req.Currency == "nzd" && req.IdempotencyKey != ""
	})).Return(&models.ChargeResult{Status: "succeeded", Paid: true, Amount: 1250}, nil)
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(&models.MessageResult{ID: "msg-1", Message: "Queued"}, nil)
	f.events.On("PublishOrderPlaced", mock.Anything).Return(nil)

	order, err := f.svc.Place(context.Background(), "jane@example.com", map[string]int{"pizza": 1, "soda": 1})
	require.NoError(t, err)

	assert.Len(t, order.ID, 20)
	assert.Equal(t, int64(1250), order.Receipt.Amount)
	assert.Equal(t, map[string]int{"pizza": 1, "soda": 1}, order.Receipt.ItemsOrdered)
	require.NotNil(t, order.EmailNotification)
	assert.Equal(t, "msg-1", order.EmailNotification.ID)
	assert.Empty(t, order.NotificationError)

	// The ordered quantities left the cart; the soda key is gone entirely.
	assert.Equal(t, models.Cart{"pizza": 1}, f.cart(t))

	// The order is durably recorded and referenced by the user.
	var stored models.Order
	require.NoError(t, f.store.Read("orders", order.ID, &stored))
	assert.Equal(t, "jane@example.com", stored.Owner)
	var user models.User
	require.NoError(t, f.store.Read("users", "jane@example.com", &user))
	assert.Contains(t, user.Orders, order.ID)

	f.payments.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestOrderService_PlaceValidatesBeforeCharging(t *testing.T) {
	cases := map[string]map[string]int{
		"empty request":       {},
		"not in cart":         {"garlic bread": 1},
		"more than cart has":  {"pizza": 5},
		"non-positive amount": {"pizza": 0},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			f := newOrderFixture(t)

			_, err := f.svc.Place(context.Background(), "jane@example.com", items)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

			// No money moved and the cart is untouched.
			f.payments.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
			assert.Equal(t, models.Cart{"pizza": 2, "soda": 1}, f.cart(t))
		})
	}
}

func TestOrderService_PlaceWithoutCart(t *testing.T) {
	f := newOrderFixture(t)
	require.NoError(t, f.store.Create("users", "noah@example.com", models.User{
		Username: "noah",
		Email:    "noah@example.com",
	}))

	_, err := f.svc.Place(context.Background(), "noah@example.com", map[string]int{"pizza": 1})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	f.payments.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestOrderService_PlacePaymentFailureAborts(t *testing.T) {
	f := newOrderFixture(t)

	f.payments.On("Charge", mock.Anything, mock.Anything).Return(nil, errors.New("card declined"))

	_, err := f.svc.Place(context.Background(), "jane@example.com", map[string]int{"pizza": 1})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPayment, apperr.KindOf(err))

	// Nothing was written and no email went out.
	ids, listErr := f.store.List("orders")
	require.NoError(t, listErr)
	assert.Empty(t, ids)
	assert.Equal(t, models.Cart{"pizza": 2, "soda": 1}, f.cart(t))
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestOrderService_PlaceNotificationFailureIsRecorded(t *testing.T) {
	f := newOrderFixture(t)

	f.payments.On("Charge", mock.Anything, mock.Anything).Return(&models.ChargeResult{Status: "succeeded", Paid: true, Amount: 1250}, nil)
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(nil, errors.New("mailgun unreachable"))
	f.events.On("PublishOrderPlaced", mock.Anything).Return(nil)

	order, err := f.svc.Place(context.Background(), "jane@example.com", map[string]int{"pizza": 1, "soda": 1})
	require.NoError(t, err)

	// Payment succeeded, so the failure is visible in the order rather
	// than failing the request.
	assert.Nil(t, order.EmailNotification)
	assert.NotEmpty(t, order.NotificationError)

	var stored models.Order
	require.NoError(t, f.store.Read("orders", order.ID, &stored))
	assert.Equal(t, order.NotificationError, stored.NotificationError)
}

// orderWriteBlocker fails every create in the orders collection while
// letting everything else through.
type orderWriteBlocker struct {
	afero.Fs
}

func (b orderWriteBlocker) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if strings.Contains(name, "orders") && flag&os.O_CREATE != 0 {
		return nil, errors.New("disk full")
	}
	return b.Fs.OpenFile(name, flag, perm)
}

func TestOrderService_PlacePartialFailureIsVisible(t *testing.T) {
	fs := afero.NewMemMapFs()
	st := store.New(orderWriteBlocker{Fs: fs}, ".data")
	f := newOrderFixtureWithStore(t, st)

	f.payments.On("Charge", mock.Anything, mock.Anything).Return(&models.ChargeResult{Status: "succeeded", Paid: true, Amount: 1000}, nil)
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(&models.MessageResult{ID: "msg-1"}, nil)

	_, err := f.svc.Place(context.Background(), "jane@example.com", map[string]int{"pizza": 1})
	require.Error(t, err)

	// The charge went through but the order record could not be written.
	// The error says so instead of pretending nothing happened.
	f.payments.AssertCalled(t, "Charge", mock.Anything, mock.Anything)
	assert.Contains(t, apperr.Message(err), "payment captured")

	// Later writes never ran: the cart still holds the original items.
	assert.Equal(t, models.Cart{"pizza": 2, "soda": 1}, f.cart(t))
}

func TestOrderService_GetEnforcesOwnership(t *testing.T) {
	f := newOrderFixture(t)

	f.payments.On("Charge", mock.Anything, mock.Anything).Return(&models.ChargeResult{Status: "succeeded", Paid: true}, nil)
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(&models.MessageResult{ID: "msg-1"}, nil)
	f.events.On("PublishOrderPlaced", mock.Anything).Return(nil)

	placed, err := f.svc.Place(context.Background(), "jane@example.com", map[string]int{"pizza": 1})
	require.NoError(t, err)

	got, err := f.svc.Get("jane@example.com", placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, got.ID)

	// Another user cannot read it even though the record exists.
	require.NoError(t, f.store.Create("users", "noah@example.com", models.User{Email: "noah@example.com"}))
	_, err = f.svc.Get("noah@example.com", placed.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
