package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asset-custody/asset_custody/internal/custody"
)

// RegisterCustodyRoutes wires the local custody ledger surface.
func RegisterCustodyRoutes(r fiber.Router, h *custody.Handler) {
	group := r.Group("/custody")
	group.Post("/accounts", h.Create)
	group.Post("/accounts/:owner/deposit", h.Deposit)
	group.Post("/accounts/:owner/withdraw", h.Withdraw)
	group.Get("/accounts/:owner", h.View)
	group.Get("/stats", h.Stats)
}
