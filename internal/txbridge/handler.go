package txbridge

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/asset-custody/asset_custody/internal/middleware"
)

// Handler exposes the build/submit endpoints used by signing frontends.
type Handler struct {
	service *Service
}

// NewHandler builds a bridge HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type buildTxRequest struct {
	Function string         `json:"function"`
	Params   map[string]any `json:"params"`
}

type submitTxRequest struct {
	SignedXDR string `json:"signed_xdr"`
}

// BuildTx builds an unsigned envelope for an arbitrary contract function so a
// frontend wallet can sign it. Failures are reported in-band with the
// collaborator's diagnostics intact.
func (h *Handler) BuildTx(c *fiber.Ctx) error {
	var req buildTxRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	params := make(map[string]string, len(req.Params))
	for k, v := range req.Params {
		params[k] = paramString(v)
	}

	xdr, err := h.service.BuildInvocation(c.UserContext(), req.Function, params)
	if err != nil {
		middleware.SkipReplay(c)
		return c.Status(http.StatusOK).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true, "xdr": xdr})
}

// SubmitTx broadcasts a signed envelope.
func (h *Handler) SubmitTx(c *fiber.Ctx) error {
	var req submitTxRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	hash, err := h.service.SubmitSigned(c.UserContext(), req.SignedXDR)
	if err != nil {
		middleware.SkipReplay(c)
		return c.Status(http.StatusOK).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true, "tx_hash": hash})
}

// paramString renders a JSON parameter value the way the toolchain expects:
// bare, without JSON string quoting.
func paramString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}
