package proposal

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/asset-custody/asset_custody/internal/middleware"
)

// Handler exposes the proposal lifecycle over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds a proposal HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type proposeRequest struct {
	Proposer    string  `json:"proposer"`
	Destination string  `json:"destination"`
	AssetCode   string  `json:"asset_code"`
	Amount      string  `json:"amount"`
	XDRUnsigned *string `json:"xdr_unsigned"`
}

type signRequest struct {
	Key       string `json:"key"`
	Signature string `json:"signature"`
}

// Propose opens a new withdrawal proposal.
func (h *Handler) Propose(c *fiber.Ctx) error {
	var req proposeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	p, err := h.service.Submit(c.UserContext(), SubmitInput{
		Proposer:    req.Proposer,
		Destination: req.Destination,
		AssetCode:   req.AssetCode,
		Amount:      req.Amount,
		XDRUnsigned: req.XDRUnsigned,
	})
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": p.ID})
}

// List returns all proposals.
func (h *Handler) List(c *fiber.Ctx) error {
	proposals, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(proposals)
}

// Sign appends a signature to the proposal. Unknown identifiers yield a null
// body rather than an error, matching the lifecycle's recoverable-result
// contract.
func (h *Handler) Sign(c *fiber.Ctx) error {
	var req signRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	p, err := h.service.Approve(c.UserContext(), c.Params("id"), req.Key, req.Signature)
	if err != nil {
		if errors.Is(err, ErrProposalNotFound) {
			return c.Status(http.StatusOK).JSON(nil)
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(p)
}

// Execute builds the withdrawal envelope for a proposal that reached quorum.
// All failures are reported in-band so callers can retry or correct; they are
// flagged non-replayable so a premature attempt never shadows a later valid one.
func (h *Handler) Execute(c *fiber.Ctx) error {
	xdr, err := h.service.Execute(c.UserContext(), c.Params("id"))
	if err != nil {
		middleware.SkipReplay(c)
		return c.Status(http.StatusOK).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true, "xdr": xdr})
}
