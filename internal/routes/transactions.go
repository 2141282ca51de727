package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asset-custody/asset_custody/internal/txbridge"
)

// RegisterTransactionRoutes wires the envelope build/submit endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *txbridge.Handler) {
	r.Post("/build_tx", h.BuildTx)
	r.Post("/submit_tx", h.SubmitTx)
}
