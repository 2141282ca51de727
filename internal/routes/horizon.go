package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asset-custody/asset_custody/internal/horizon"
)

// RegisterHorizonRoutes wires Horizon account lookups.
func RegisterHorizonRoutes(r fiber.Router, h *horizon.Handler) {
	r.Get("/accounts/:id/balance", h.Balance)
}
