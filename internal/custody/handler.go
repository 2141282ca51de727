package custody

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the custody ledger over HTTP. It serves as a local ledger
// surface for development and testing; on a real network the same operations
// are invoked on the contract through the transaction toolchain.
type Handler struct {
	ledger Ledger
}

// NewHandler builds a custody HTTP handler.
func NewHandler(ledger Ledger) *Handler {
	return &Handler{ledger: ledger}
}

type createRequest struct {
	Caller             string `json:"caller"`
	Owner              string `json:"owner"`
	RequiredSignatures uint32 `json:"required_signatures"`
	Insured            bool   `json:"insured"`
}

type depositRequest struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type withdrawRequest struct {
	Caller          string `json:"caller"`
	Amount          string `json:"amount"`
	SignaturesCount uint32 `json:"signatures_count"`
}

type accountResponse struct {
	Owner              string `json:"owner"`
	Balance            string `json:"balance"`
	RequiredSignatures uint32 `json:"required_signatures"`
	IsInsured          bool   `json:"is_insured"`
	IsActive           bool   `json:"is_active"`
}

// Create provisions a custody account for the owner.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.ledger.CreateAccount(c.UserContext(), req.Caller, req.Owner, req.RequiredSignatures, req.Insured); err != nil {
		return ledgerError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"ok": true})
}

// Deposit credits the owner's custody account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	owner := c.Params("owner")
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.ledger.Deposit(c.UserContext(), req.Caller, owner, amount); err != nil {
		return ledgerError(err)
	}
	return h.respondWithAccount(c, owner)
}

// Withdraw debits the owner's custody account subject to the multi-sig threshold.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	owner := c.Params("owner")
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.ledger.Withdraw(c.UserContext(), req.Caller, owner, amount, req.SignaturesCount); err != nil {
		return ledgerError(err)
	}
	return h.respondWithAccount(c, owner)
}

// View returns the stored account, or the sentinel record for unknown owners.
func (h *Handler) View(c *fiber.Ctx) error {
	account, err := h.ledger.View(c.UserContext(), c.Params("owner"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(account))
}

// Stats reports the global account counter.
func (h *Handler) Stats(c *fiber.Ctx) error {
	total, err := h.ledger.TotalAccounts(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"total_accounts": total})
}

func (h *Handler) respondWithAccount(c *fiber.Ctx, owner string) error {
	account, err := h.ledger.View(c.UserContext(), owner)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(account))
}

func toResponse(account CustodyAccount) accountResponse {
	return accountResponse{
		Owner:              account.Owner,
		Balance:            account.Balance.String(),
		RequiredSignatures: account.RequiredSignatures,
		IsInsured:          account.IsInsured,
		IsActive:           account.IsActive,
	}
}

func parseAmount(text string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, errors.New("amount must be a base-10 integer")
	}
	return amount, nil
}

func ledgerError(err error) error {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAccountExists), errors.Is(err, ErrAccountInactive):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrThresholdTooLow), errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInsufficientSignatures), errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
