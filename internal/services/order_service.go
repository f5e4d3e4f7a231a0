package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pizzeria/internal/apperr"
	"pizzeria/internal/gateway"
	"pizzeria/internal/models"
	"pizzeria/internal/random"
	"pizzeria/internal/store"
)

// EventPublisher publishes order events to the message broker. Publishing
// is best-effort: a broker failure never fails an order.
type EventPublisher interface {
	PublishOrderPlaced(event any) error
}

// OrderAuditor appends an order record to the per-user audit log.
type OrderAuditor interface {
	Append(name string, entry any) error
}

// OrderPlacedEvent is the payload published after a successful checkout.
type OrderPlacedEvent struct {
	EventID string         `json:"event_id"`
	OrderID string         `json:"order_id"`
	Owner   string         `json:"owner"`
	Amount  int64          `json:"amount"`
	Items   map[string]int `json:"items"`
}

// OrderServiceConfig carries the payment parameters of the workflow.
type OrderServiceConfig struct {
	// Currency code passed to the payment gateway.
	Currency string
	// Source is the payment source reference to charge.
	Source string
}

// OrderService orchestrates checkout: cart validation, payment,
// notification and the three dependent entity writes that follow a
// successful charge. There is no cross-entity transaction; the write
// sequence is ordered so that a captured payment always has a durable
// order record before anything else is touched, and a failure partway
// leaves an inconsistent-but-detectable state rather than a lost charge.
type OrderService struct {
	store    *store.Store
	payments gateway.PaymentGateway
	notifier gateway.NotificationGateway
	events   EventPublisher
	audit    OrderAuditor
	log      zerolog.Logger
	cfg      OrderServiceConfig
}

// NewOrderService creates a new OrderService. events and audit may be nil
// when the broker or audit log is not configured.
func NewOrderService(st *store.Store, payments gateway.PaymentGateway, notifier gateway.NotificationGateway, events EventPublisher, audit OrderAuditor, logger zerolog.Logger, cfg OrderServiceConfig) *OrderService {
	return &OrderService{
		store:    st,
		payments: payments,
		notifier: notifier,
		events:   events,
		audit:    audit,
		log:      logger,
		cfg:      cfg,
	}
}

// Place runs the checkout workflow for the given items. Validation happens
// before any external call or write: no money is charged for a request
// that cannot be fulfilled from the cart.
func (s *OrderService) Place(ctx context.Context, email string, items map[string]int) (*models.Order, error) {
	// Step 1: load user, cart and menu.
	var user models.User
	if err := s.store.Read("users", email, &user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "user not found", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the user", err)
	}
	if user.CartID == "" {
		return nil, apperr.New(apperr.KindValidation, "the user has no cart to order from")
	}
	var cart models.Cart
	if err := s.store.Read("carts", user.CartID, &cart); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "could not read the cart", err)
	}
	var menu models.Menu
	if err := s.store.Read("menus", models.MenuID, &menu); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "could not read the menu", err)
	}

	// Step 2: every requested item must be in the cart, priced on the menu,
	// and within the quantity the cart holds.
	if len(items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "at least one item is required")
	}
	for name, qty := range items {
		inCart, ok := cart[name]
		if !ok || qty < 1 || qty > inCart {
			return nil, apperr.New(apperr.KindValidation, "some of the items supplied are invalid or undefined")
		}
		if _, priced := menu[name]; !priced {
			return nil, apperr.New(apperr.KindValidation, "some of the items supplied are invalid or undefined")
		}
	}

	// Step 3: compute the receipt against an in-memory copy of the cart.
	remaining := models.Cart{}
	for name, qty := range cart {
		remaining[name] = qty
	}
	receipt := models.Receipt{ItemsOrdered: items}
	for name, qty := range items {
		remaining[name] -= qty
		if remaining[name] <= 0 {
			delete(remaining, name)
		}
		receipt.Amount += menu[name] * int64(qty)
	}

	orderID, err := random.ID()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not generate the new order id", err)
	}

	// Step 4: charge the payment. A failure aborts the workflow before any
	// write; the cart on disk is untouched.
	transaction, err := s.payments.Charge(ctx, gateway.ChargeRequest{
		Amount:         receipt.Amount,
		Currency:       s.cfg.Currency,
		Description:    describeItems(items),
		Source:         s.cfg.Source,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPayment, "could not charge the payment source", err)
	}

	order := models.Order{
		ID:          orderID,
		Owner:       email,
		Receipt:     receipt,
		Transaction: *transaction,
		CreatedAt:   time.Now().UTC(),
	}

	// Step 5: send the receipt email. Payment has already succeeded, so a
	// notification failure is recorded in the order instead of aborting.
	notification, err := s.notifier.Send(ctx, gateway.Message{
		To:      fmt.Sprintf("%s <%s>", user.Username, email),
		Subject: "Thank you for your order",
		Text:    receiptText(orderID, receipt),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("order", orderID).Msg("receipt email failed after successful charge")
		order.NotificationError = "receipt email could not be sent"
	} else {
		order.EmailNotification = notification
	}

	// Step 6: three independent writes, order record first. If a later
	// write fails the charge is still durably recorded.
	if err := s.store.Create("orders", orderID, order); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "payment captured but the order could not be recorded", err)
	}
	user.Orders = append(user.Orders, orderID)
	if err := s.store.Update("users", email, user); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "order recorded but the user could not be updated", err)
	}
	if err := s.store.Update("carts", user.CartID, remaining); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "order recorded but the cart could not be updated", err)
	}

	if s.audit != nil {
		if err := s.audit.Append(email, order); err != nil {
			s.log.Warn().Err(err).Str("order", orderID).Msg("audit log append failed")
		}
	}
	if s.events != nil {
		event := OrderPlacedEvent{
			EventID: uuid.NewString(),
			OrderID: orderID,
			Owner:   email,
			Amount:  receipt.Amount,
			Items:   items,
		}
		if err := s.events.PublishOrderPlaced(event); err != nil {
			s.log.Warn().Err(err).Str("order", orderID).Msg("order event publish failed")
		}
	}

	s.log.Info().Str("order", orderID).Str("email", email).Int64("amount", receipt.Amount).Msg("order placed")
	return &order, nil
}

// Get returns one of the user's orders. Orders not referenced by the
// user's order list are not visible to them.
func (s *OrderService) Get(email, orderID string) (*models.Order, error) {
	var user models.User
	if err := s.store.Read("users", email, &user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "user not found", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the user", err)
	}
	owned := false
	for _, id := range user.Orders {
		if id == orderID {
			owned = true
			break
		}
	}
	if !owned {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}

	var order models.Order
	if err := s.store.Read("orders", orderID, &order); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "order not found", err)
		}
		return nil, apperr.Wrap(apperr.KindStore, "could not read the order", err)
	}
	return &order, nil
}

// describeItems renders the ordered items as a short charge description,
// clamped to the gateway's 100-character limit.
func describeItems(items map[string]int) string {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s x%d", name, items[name]))
	}
	desc := "Items ordered: " + strings.Join(parts, ", ")
	if len(desc) > 100 {
		desc = desc[:97] + "..."
	}
	return desc
}

// receiptText renders the body of the receipt email.
func receiptText(orderID string, receipt models.Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your order has been placed and will be ready for pick-up in 15 minutes.\n\n")
	fmt.Fprintf(&b, "Order number: %s\n", orderID)
	fmt.Fprintf(&b, "Total: %d\n", receipt.Amount)
	b.WriteString("Items:\n")
	names := make([]string, 0, len(receipt.ItemsOrdered))
	for name := range receipt.ItemsOrdered {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s x%d\n", name, receipt.ItemsOrdered[name])
	}
	return b.String()
}
