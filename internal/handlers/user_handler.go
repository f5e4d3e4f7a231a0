package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"pizzeria/internal/middleware"
	"pizzeria/internal/models"
	"pizzeria/internal/services"
)

// UserHandler handles HTTP requests for user records.
type UserHandler struct {
	responder
	auth     *services.AuthService
	users    *services.UserService
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(auth *services.AuthService, users *services.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		responder: responder{log: logger},
		auth:      auth,
		users:     users,
		validate:  validator.New(),
	}
}

// RegisterRoutes registers the user routes. Creation is the only
// unauthenticated operation.
func (h *UserHandler) RegisterRoutes(router fiber.Router, guard *middleware.TokenGuard) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/", h.HandleCreate)
	userRoutes.Get("/", guard.Require(middleware.EmailFromQuery("email")), h.HandleGet)
	userRoutes.Put("/", guard.Require(middleware.EmailFromBody()), h.HandleUpdate)
	userRoutes.Delete("/", guard.Require(middleware.EmailFromQuery("email")), h.HandleDelete)
}

// HandleCreate registers a new user.
func (h *UserHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return h.failBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return h.failValidation(c, err)
	}

	user, err := h.auth.Register(req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user.Masked())
}

// HandleGet returns the authenticated user's record, hash masked.
func (h *UserHandler) HandleGet(c *fiber.Ctx) error {
	email := c.Query("email")
	if err := h.validate.Var(email, "required,email"); err != nil {
		return h.failValidation(c, err)
	}

	user, err := h.users.Get(email)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user.Masked())
}

// HandleUpdate applies a partial update. At least one optional field must
// be present.
func (h *UserHandler) HandleUpdate(c *fiber.Ctx) error {
	var req models.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return h.failBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return h.failValidation(c, err)
	}
	if req.Username == "" && req.Password == "" && req.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "At least one of username, password or address is required",
		})
	}

	user, err := h.users.Update(req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user.Masked())
}

// HandleDelete removes the user along with their cart and orders.
func (h *UserHandler) HandleDelete(c *fiber.Ctx) error {
	email := c.Query("email")
	if err := h.validate.Var(email, "required,email"); err != nil {
		return h.failValidation(c, err)
	}

	user, err := h.users.Delete(email)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user.Masked())
}
