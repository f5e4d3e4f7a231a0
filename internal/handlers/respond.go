package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"pizzeria/internal/apperr"
)

// responder maps service errors onto HTTP responses. Server-side failures
// are logged with their internal cause; clients only ever see the short
// classified message.
type responder struct {
	log zerolog.Logger
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindPayment:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func (r responder) fail(c *fiber.Ctx, err error) error {
	status := statusOf(apperr.KindOf(err))
	if status >= http.StatusInternalServerError {
		r.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{
		"message": apperr.Message(err),
	})
}

// failValidation renders validator.v10 field errors as a 400 response.
func (r responder) failValidation(c *fiber.Ctx, err error) error {
	fields := make(map[string]string)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range verrs {
			fields[e.Field()] = "failed on the '" + e.Tag() + "' tag"
		}
	}
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"message": "Missing required field(s), or one or several fields are invalid",
		"errors":  fields,
	})
}

func (r responder) failBody(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
	})
}
