package horizon

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes Horizon lookups over HTTP.
type Handler struct {
	client *Client
}

// NewHandler builds a Horizon HTTP handler.
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Balance returns the native balance of an account.
func (h *Handler) Balance(c *fiber.Ctx) error {
	accountID := c.Params("id")
	balance, err := h.client.NativeBalance(c.UserContext(), accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrNoNativeBalance) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"account_id": accountID, "balance": balance})
}
