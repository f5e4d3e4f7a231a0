package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"pizzeria/internal/services"
)

// EmailExtractor pulls the email identity a request claims from wherever
// the endpoint carries it (query string or body). The token itself never
// implies an identity; the claimed email is cross-checked against the
// token's bound email.
type EmailExtractor func(c *fiber.Ctx) string

// EmailFromQuery reads the claimed email from a query parameter.
func EmailFromQuery(param string) EmailExtractor {
	return func(c *fiber.Ctx) string {
		return c.Query(param)
	}
}

// EmailFromBody reads the claimed email from a JSON body field.
func EmailFromBody() EmailExtractor {
	return func(c *fiber.Ctx) string {
		var payload struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(c.Body(), &payload); err != nil {
			return ""
		}
		return payload.Email
	}
}

// TokenGuard is the authorization gate for every authenticated endpoint.
type TokenGuard struct {
	tokens *services.TokenService
}

// NewTokenGuard creates a TokenGuard backed by the token service.
func NewTokenGuard(tokens *services.TokenService) *TokenGuard {
	return &TokenGuard{tokens: tokens}
}

// Require returns a middleware that rejects the request unless the token
// header names a live token bound to the claimed email. Verification fails
// closed; no distinction is made between missing, unknown, mismatched and
// expired tokens.
func (g *TokenGuard) Require(extract EmailExtractor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenID := c.Get("token")
		email := extract(c)
		if tokenID == "" || email == "" || !g.tokens.Verify(tokenID, email) {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"message": "Missing required token in header, or token is invalid",
			})
		}
		return c.Next()
	}
}
