package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jamesdwilson/byteball-merchant/internal/model"
	"github.com/jamesdwilson/byteball-merchant/internal/repository"
	"github.com/jamesdwilson/byteball-merchant/internal/wallet"
)

// OrdersHandler exposes read-only views over the order history and the
// wallet status for the operator.
type OrdersHandler struct {
	sessions *repository.SessionRepo
	wallet   *wallet.Service
}

// NewOrdersHandler returns an OrdersHandler bound to the session store
// and the wallet service.
func NewOrdersHandler(sessions *repository.SessionRepo, wallet *wallet.Service) *OrdersHandler {
	return &OrdersHandler{sessions: sessions, wallet: wallet}
}

// orderView is the JSON shape of one session row.
type orderView struct {
	ID             uint64      `json:"id"`
	DeviceAddress  string      `json:"device_address"`
	Step           string      `json:"step"`
	Order          model.Order `json:"order"`
	Amount         *int64      `json:"amount,omitempty"`
	PaymentAddress *string     `json:"payment_address,omitempty"`
	PaymentUnit    *string     `json:"payment_unit,omitempty"`
	PaidAt         *time.Time  `json:"paid_at,omitempty"`
	ConfirmedAt    *time.Time  `json:"confirmed_at,omitempty"`
	CancelledAt    *time.Time  `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// List handles GET /v1/orders.  The optional ?limit query parameter
// caps the number of rows returned (default 50, max 500).
func (h *OrdersHandler) List(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		if n > 500 {
			n = 500
		}
		limit = n
	}
	sessions, err := h.sessions.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	views := make([]orderView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, orderView{
			ID:             s.ID,
			DeviceAddress:  s.DeviceAddress,
			Step:           string(s.Step),
			Order:          s.Order,
			Amount:         s.Amount,
			PaymentAddress: s.PaymentAddress,
			PaymentUnit:    s.PaymentUnit,
			PaidAt:         s.PaidAt,
			ConfirmedAt:    s.ConfirmedAt,
			CancelledAt:    s.CancelledAt,
			CreatedAt:      s.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, views)
}

// Wallet handles GET /v1/wallet and reports whether the shop wallet has
// been configured yet.
func (h *OrdersHandler) Wallet(c echo.Context) error {
	id, ok := h.wallet.ID()
	resp := echo.Map{"configured": ok}
	if ok {
		resp["wallet"] = id
	}
	return c.JSON(http.StatusOK, resp)
}
