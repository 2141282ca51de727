package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asset-custody/asset_custody/internal/proposal"
)

// RegisterProposalRoutes wires the proposal lifecycle endpoints. The execute
// route takes an optional idempotency guard keyed on the proposal id.
func RegisterProposalRoutes(r fiber.Router, h *proposal.Handler, executeGuard fiber.Handler) {
	r.Post("/propose", h.Propose)
	r.Get("/proposals", h.List)
	r.Post("/proposals/:id/sign", h.Sign)
	if executeGuard != nil {
		r.Post("/withdraw_execute/:id", executeGuard, h.Execute)
	} else {
		r.Post("/withdraw_execute/:id", h.Execute)
	}
}
