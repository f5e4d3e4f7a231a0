package models

import "time"

// User is a registered customer, keyed by email in the users collection.
// The password hash never serializes into API responses; handlers return
// the Masked form.
type User struct {
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"hashedPassword,omitempty"`
	Address      string   `json:"address"`
	// CartID is assigned the first time the user's cart is touched and is
	// stable for the user's lifetime.
	CartID string   `json:"cart,omitempty"`
	Orders []string `json:"orders,omitempty"`
}

// Masked returns a copy safe to serialize to clients.
func (u User) Masked() User {
	u.PasswordHash = ""
	return u
}

// Cart maps item names to quantities. Stored quantities are always >= 1;
// entries that would drop below 1 are removed, never kept at zero.
type Cart map[string]int

// Menu maps item names to unit prices in minor units (cents).
type Menu map[string]int64

// MenuID is the id of the single fixed menu.
const MenuID = "dominos"

// Token is a bearer credential bound to one email. Valid while
// Expires is strictly in the future.
type Token struct {
	ID      string    `json:"id"`
	Email   string    `json:"email"`
	Expires time.Time `json:"expires"`
}

// Receipt is the computed amount/items pair produced at checkout. Amount is
// in minor units, summed from the menu prices current at order time.
type Receipt struct {
	Amount       int64          `json:"amount"`
	ItemsOrdered map[string]int `json:"items_ordered"`
}

// ChargeResult is the simplified outcome of a successful payment charge.
type ChargeResult struct {
	Status             string `json:"status"`
	Paid               bool   `json:"paid"`
	SourceID           string `json:"source_id"`
	BalanceTransaction string `json:"balance_transaction"`
	Amount             int64  `json:"amount"`
	Description        string `json:"description"`
}

// MessageResult is the simplified outcome of a queued notification email.
type MessageResult struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Order is immutable once written.
type Order struct {
	ID      string  `json:"orderId"`
	Owner   string  `json:"owner"`
	Receipt Receipt `json:"receipt"`
	// Transaction records the payment charge that preceded the order writes.
	Transaction ChargeResult `json:"transaction"`
	// EmailNotification is nil when the receipt email failed; the failure is
	// recorded in NotificationError instead of aborting the order.
	EmailNotification *MessageResult `json:"emailNotification,omitempty"`
	NotificationError string         `json:"notificationError,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// RegisterRequest is the payload for creating a user.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
	Address  string `json:"address" validate:"required,min=1"`
}

// UpdateUserRequest updates a user in place; at least one optional field
// must be present, which the handler checks after struct validation.
type UpdateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"omitempty,min=1"`
	Password string `json:"password" validate:"omitempty,min=1"`
	Address  string `json:"address" validate:"omitempty,min=1"`
}

// LoginRequest is the payload for issuing a token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ExtendTokenRequest is the payload for extending a token's expiry.
type ExtendTokenRequest struct {
	ID     string `json:"id" validate:"required,len=20"`
	Extend bool   `json:"extend" validate:"required,eq=true"`
}

// CartRequest mutates a cart. Action is add, remove or overwrite.
type CartRequest struct {
	Email  string         `json:"email" validate:"required,email"`
	Items  map[string]int `json:"items" validate:"required,min=1"`
	Action string         `json:"action" validate:"omitempty,oneof=add remove overwrite"`
}

// OrderRequest places an order for items already present in the cart.
type OrderRequest struct {
	Email string         `json:"email" validate:"required,email"`
	Items map[string]int `json:"items" validate:"required,min=1"`
}
