package controller

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"malti-dashboard/internal/apierror"
	"malti-dashboard/internal/repository"
	"malti-dashboard/internal/service"
)

// toHTTPError maps domain errors onto the status codes the page expects.
func toHTTPError(err error, fallback string) error {
	var validationErr *service.ValidationError
	var apiErr *apierror.Error
	var netErr *apierror.NetworkError

	switch {
	case errors.As(err, &validationErr):
		return fiber.NewError(fiber.StatusBadRequest, validationErr.Error())
	case errors.Is(err, apierror.ErrNoAPIKey):
		return fiber.NewError(fiber.StatusUnauthorized, "API key is not configured")
	case apierror.IsUnauthorized(err):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.As(err, &apiErr):
		return fiber.NewError(fiber.StatusBadGateway, apiErr.Detail)
	case errors.As(err, &netErr):
		return fiber.NewError(fiber.StatusBadGateway, netErr.Error())
	case errors.Is(err, repository.ErrInvalidResponse):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, service.ErrSuperseded):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "upstream request timed out")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}
