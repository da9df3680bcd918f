package controller

import (
	"strconv"

	"malti-dashboard/internal/model"
	"malti-dashboard/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type DashboardController interface {
	GetDashboard(c *fiber.Ctx) error
	GetTimeRanges(c *fiber.Ctx) error
}

// dashboardController exposes the dashboard read endpoints.
type dashboardController struct {
	dashboardService service.DashboardService
}

// NewDashboardController builds a DashboardController.
func NewDashboardController(svc service.DashboardService) DashboardController {
	return &dashboardController{dashboardService: svc}
}

// GetDashboard returns every panel for the selected window and filters.
func (h *dashboardController) GetDashboard(c *fiber.Ctx) error {
	query, err := buildDashboardQuery(c)
	if err != nil {
		return err
	}

	dashboard, svcErr := h.dashboardService.BuildDashboard(c.UserContext(), query)
	if svcErr != nil {
		return toHTTPError(svcErr, "failed to build dashboard")
	}

	return c.JSON(dashboard)
}

// GetTimeRanges lists the selectable windows.
func (h *dashboardController) GetTimeRanges(c *fiber.Ctx) error {
	return c.JSON(h.dashboardService.TimeRanges())
}

func buildDashboardQuery(c *fiber.Ctx) (model.DashboardQuery, error) {
	hours := 1
	if raw := utils.Trim(c.Query("hours"), ' '); raw != "" {
		n, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			return model.DashboardQuery{}, fiber.NewError(fiber.StatusBadRequest, "invalid hours")
		}
		hours = n
	}

	return model.DashboardQuery{
		Hours:    hours,
		Service:  utils.Trim(c.Query("service"), ' '),
		Node:     utils.Trim(c.Query("node"), ' '),
		Endpoint: utils.Trim(c.Query("endpoint"), ' '),
		Method:   utils.Trim(c.Query("method"), ' '),
		Context:  utils.Trim(c.Query("context"), ' '),
	}, nil
}
