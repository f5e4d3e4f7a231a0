package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"pizzeria/internal/services"
)

// MenuHandler serves the fixed menu. Reading the menu needs no token.
type MenuHandler struct {
	responder
	menu *services.MenuService
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(menu *services.MenuService, logger zerolog.Logger) *MenuHandler {
	return &MenuHandler{
		responder: responder{log: logger},
		menu:      menu,
	}
}

// RegisterRoutes registers the menu route.
func (h *MenuHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/menu", h.HandleGet)
}

// HandleGet returns the menu with prices in minor units.
func (h *MenuHandler) HandleGet(c *fiber.Ctx) error {
	menu, err := h.menu.Get()
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(menu)
}
