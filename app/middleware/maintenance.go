package middleware

import (
	"context"
	"time"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/gofiber/fiber/v3"
)

// MaintenanceChecker reports whether the public site is switched off
type MaintenanceChecker interface {
	MaintenanceMode(ctx context.Context) bool
}

// Maintenance rejects public submissions with 503 while maintenance mode is on.
// Reads stay available so the site can still render its settings.
func Maintenance(checker MaintenanceChecker) fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Method() == fiber.MethodGet {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if checker.MaintenanceMode(ctx) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.APIResponse{
				Success: false,
				Message: "The site is under maintenance. Please try again later.",
				Error:   dto.ErrorDetail{Code: "MAINTENANCE_MODE"},
			})
		}
		return c.Next()
	}
}
