package controller

import (
	"malti-dashboard/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type SessionController interface {
	Login(c *fiber.Ctx) error
	Logout(c *fiber.Ctx) error
	Current(c *fiber.Ctx) error
}

type loginRequest struct {
	APIKey string `json:"api_key"`
}

type sessionController struct {
	session auth.Session
}

// NewSessionController builds a SessionController.
func NewSessionController(session auth.Session) SessionController {
	return &sessionController{session: session}
}

// Login validates the submitted key and returns the identity behind it.
func (h *sessionController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json payload")
	}

	key := utils.Trim(req.APIKey, ' ')
	if key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "api_key is required")
	}

	identity, err := h.session.Login(c.UserContext(), key)
	if err != nil {
		return toHTTPError(err, "login failed")
	}

	return c.JSON(identity)
}

func (h *sessionController) Logout(c *fiber.Ctx) error {
	if err := h.session.Logout(); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "logout failed")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *sessionController) Current(c *fiber.Ctx) error {
	identity, ok := h.session.Current()
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(identity)
}
