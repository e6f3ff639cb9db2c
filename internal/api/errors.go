package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/logger"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.NotFound:
		return fiber.StatusNotFound
	case apperror.Unauthorized, apperror.Forbidden:
		return fiber.StatusForbidden
	case apperror.InvalidTransition, apperror.ValidationError, apperror.UnsupportedFormat, apperror.InvalidDate:
		return fiber.StatusBadRequest
	case apperror.Conflict:
		return fiber.StatusConflict
	case apperror.Timeout:
		return fiber.StatusGatewayTimeout
	case apperror.UpstreamError, apperror.EmptyResponse, apperror.MalformedModelOutput:
		return fiber.StatusBadGateway
	case apperror.ExtractionFailed:
		return fiber.StatusUnprocessableEntity
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// messageFor returns the caller-facing message. Unclassified failures are
// logged and hidden.
func messageFor(c *fiber.Ctx, err error, status int) string {
	if status >= fiber.StatusInternalServerError && apperror.KindOf(err) == "" {
		logger.Log.Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("Request failed")
		return "Internal server error"
	}
	var fe *fiber.Error
	if errors.As(err, &fe) && apperror.KindOf(err) == "" {
		return fe.Message
	}
	return apperror.MessageOf(err)
}

// errorHandler renders returned errors as {"message": ...}.
func errorHandler(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	return c.Status(status).JSON(fiber.Map{"message": messageFor(c, err, status)})
}
