package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/huynhtran/minimart/internal/logging"
	midauth "github.com/huynhtran/minimart/internal/middleware/auth"
	"github.com/huynhtran/minimart/internal/notify"
	"github.com/huynhtran/minimart/internal/service"
	"github.com/huynhtran/minimart/internal/token"
)

// lastOrderCookie is the one-shot handle to the just-created order: set at
// checkout, consumed by the first confirmation view. Reloading without it
// gets a redirect-worthy failure instead of re-displaying an order by
// number guessing.
const lastOrderCookie = "lastOrder"

type CheckoutHandler struct {
	Cart     *CartHandler
	Orders   *service.OrderService
	Notifier *notify.Notifier
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout")

	var info service.ShippingInfo
	if err := c.Bind(&info); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}

	cart, err := h.Cart.resolveCart(c)
	if err != nil {
		l.Error("checkout_error", "error", err)
		return svcError(c, err)
	}

	order, err := h.Orders.Checkout(ctx, cart, info, midauth.CurrentUser(c), c.RealIP())
	if err != nil {
		l.Warn("checkout_rejected", "cart_id", cart.ID, "error", err)
		return svcError(c, err)
	}

	// Notify after commit, off the request path. Delivery failure is the
	// notifier's problem, never the customer's.
	go h.Notifier.NewOrder(context.Background(), order)

	c.SetCookie(token.CreateCookie(lastOrderCookie, order.OrderNumber, "/", time.Now().Add(15*time.Minute)))

	l.Info("order placed", "order_number", order.OrderNumber, "total", order.OrderTotal)
	return c.JSON(http.StatusOK, echo.Map{
		"status":       "success",
		"message":      "order placed",
		"order_number": order.OrderNumber,
		"redirect":     "/orders/complete",
	})
}

// OrderComplete consumes the one-shot handle and shows the confirmation.
func (h *CheckoutHandler) OrderComplete(c echo.Context) error {
	ck, err := c.Cookie(lastOrderCookie)
	if err != nil || ck.Value == "" {
		return c.JSON(http.StatusNotFound, echo.Map{
			"status":   "error",
			"message":  "no recent order",
			"redirect": "/",
		})
	}

	order, err := h.Orders.GetByNumber(c.Request().Context(), ck.Value, nil)
	if err != nil {
		return svcError(c, err)
	}

	// Consume the handle.
	c.SetCookie(token.CreateCookie(lastOrderCookie, "", "/", time.Unix(0, 0)))

	return c.JSON(http.StatusOK, echo.Map{
		"order": order,
		"items": order.Items,
	})
}

func (h *CheckoutHandler) OrderHistory(c echo.Context) error {
	userID := midauth.CurrentUser(c)
	if userID == nil {
		return errorResponse(c, http.StatusUnauthorized, "login required")
	}

	orders, err := h.Orders.History(c.Request().Context(), *userID)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

func (h *CheckoutHandler) OrderDetail(c echo.Context) error {
	userID := midauth.CurrentUser(c)
	if userID == nil {
		return errorResponse(c, http.StatusUnauthorized, "login required")
	}

	order, err := h.Orders.GetByNumber(c.Request().Context(), c.Param("number"), userID)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order, "items": order.Items})
}
