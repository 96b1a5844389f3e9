package controllers

import (
	"errors"
	"log/slog"

	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// handleError maps service errors to responses. Anything unclassified is
// logged with the originating error and answered with a generic 500.
func handleError(c *fiber.Ctx, logger *slog.Logger, err error, failure string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNotEnrolled):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.Unauthorized(c, "Invalid credentials")
	}

	logger.Error(failure,
		slog.String("error", err.Error()),
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
	)
	return utils.InternalServerError(c, failure)
}

// parseBody decodes and validates the request body into req. When ok is
// false the error response has already been written.
func parseBody(c *fiber.Ctx, req interface{}) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return false, utils.ValidationError(c, errs)
	}
	return true, nil
}

// subjectUser resolves the user a request acts for: the explicit userId when
// given, the caller otherwise. Only admins may act for someone else.
func subjectUser(c *fiber.Ctx, requested string) (string, bool) {
	if requested == "" {
		return middleware.CurrentUserID(c), true
	}
	return requested, middleware.CanActFor(c, requested)
}
