package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"pizzeria/internal/middleware"
	"pizzeria/internal/models"
	"pizzeria/internal/services"
)

// CartHandler handles HTTP requests for the user's cart.
type CartHandler struct {
	responder
	carts    *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *services.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		responder: responder{log: logger},
		carts:     carts,
		validate:  validator.New(),
	}
}

// RegisterRoutes registers the cart routes. All of them are authenticated.
func (h *CartHandler) RegisterRoutes(router fiber.Router, guard *middleware.TokenGuard) {
	cartRoutes := router.Group("/carts")
	cartRoutes.Get("/", guard.Require(middleware.EmailFromQuery("email")), h.HandleGet)
	cartRoutes.Put("/", guard.Require(middleware.EmailFromBody()), h.HandleMutate)
	cartRoutes.Delete("/", guard.Require(middleware.EmailFromQuery("email")), h.HandleClear)
}

// HandleGet returns the user's cart; empty if never touched.
func (h *CartHandler) HandleGet(c *fiber.Ctx) error {
	email := c.Query("email")
	if err := h.validate.Var(email, "required,email"); err != nil {
		return h.failValidation(c, err)
	}

	cart, err := h.carts.Get(email)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(cart)
}

// HandleMutate adds, removes or overwrites cart items. Action defaults to
// overwrite when absent.
func (h *CartHandler) HandleMutate(c *fiber.Ctx) error {
	var req models.CartRequest
	if err := c.BodyParser(&req); err != nil {
		return h.failBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return h.failValidation(c, err)
	}

	cart, err := h.carts.Apply(req.Email, req.Action, req.Items)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(cart)
}

// HandleClear empties the cart and returns the removed items.
func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	email := c.Query("email")
	if err := h.validate.Var(email, "required,email"); err != nil {
		return h.failValidation(c, err)
	}

	removed, err := h.carts.Clear(email)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"deleted_items": removed})
}
