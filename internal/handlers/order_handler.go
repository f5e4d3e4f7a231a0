package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"pizzeria/internal/middleware"
	"pizzeria/internal/models"
	"pizzeria/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	responder
	orders   *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *services.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		responder: responder{log: logger},
		orders:    orders,
		validate:  validator.New(),
	}
}

// RegisterRoutes registers the order routes. All of them are authenticated.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, guard *middleware.TokenGuard) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", guard.Require(middleware.EmailFromBody()), h.HandlePlace)
	orderRoutes.Get("/", guard.Require(middleware.EmailFromQuery("email")), h.HandleGet)
}

// HandlePlace runs the checkout workflow for items already in the cart.
func (h *OrderHandler) HandlePlace(c *fiber.Ctx) error {
	var req models.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return h.failBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return h.failValidation(c, err)
	}

	order, err := h.orders.Place(c.Context(), req.Email, req.Items)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGet returns one of the user's orders by id.
func (h *OrderHandler) HandleGet(c *fiber.Ctx) error {
	email := c.Query("email")
	orderID := c.Query("orderId")
	if err := h.validate.Var(email, "required,email"); err != nil {
		return h.failValidation(c, err)
	}
	if err := h.validate.Var(orderID, "required,len=20"); err != nil {
		return h.failValidation(c, err)
	}

	order, err := h.orders.Get(email, orderID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(order)
}
