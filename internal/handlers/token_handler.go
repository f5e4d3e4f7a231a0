package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"pizzeria/internal/models"
	"pizzeria/internal/services"
)

// TokenHandler handles the token lifecycle: login issues a token, and the
// remaining operations manage it by id.
type TokenHandler struct {
	responder
	auth   *services.AuthService
	tokens *services.TokenService

	validate *validator.Validate
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(auth *services.AuthService, tokens *services.TokenService, logger zerolog.Logger) *TokenHandler {
	return &TokenHandler{
		responder: responder{log: logger},
		auth:      auth,
		tokens:    tokens,
		validate:  validator.New(),
	}
}

// RegisterRoutes registers the token routes.
func (h *TokenHandler) RegisterRoutes(router fiber.Router) {
	tokenRoutes := router.Group("/tokens")
	tokenRoutes.Post("/", h.HandleLogin)
	tokenRoutes.Get("/", h.HandleGet)
	tokenRoutes.Put("/", h.HandleExtend)
	tokenRoutes.Delete("/", h.HandleRevoke)
}

// HandleLogin authenticates email/password and issues a fresh token.
func (h *TokenHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.failBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return h.failValidation(c, err)
	}

	token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(token)
}

// HandleGet looks up a token by id.
func (h *TokenHandler) HandleGet(c *fiber.Ctx) error {
	id := c.Query("id")
	if err := h.validate.Var(id, "required,len=20"); err != nil {
		return h.failValidation(c, err)
	}

	token, err := h.tokens.Get(id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(token)
}

// HandleExtend resets a live token's expiry one TTL into the future.
// Expired tokens cannot be renewed.
func (h *TokenHandler) HandleExtend(c *fiber.Ctx) error {
	var req models.ExtendTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return h.failBody(c)
	}
	if err := h.validate.Struct(req); err != nil {
		return h.failValidation(c, err)
	}

	token, err := h.tokens.Extend(req.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(token)
}

// HandleRevoke deletes a token (logout).
func (h *TokenHandler) HandleRevoke(c *fiber.Ctx) error {
	id := c.Query("id")
	if err := h.validate.Var(id, "required,len=20"); err != nil {
		return h.failValidation(c, err)
	}

	token, err := h.tokens.Revoke(id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(token)
}
