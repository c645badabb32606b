package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/logging"
	"github.com/huynhtran/minimart/internal/models"
	"github.com/huynhtran/minimart/internal/service"
	"github.com/huynhtran/minimart/internal/util"
)

const orderPageSize = 20

type OrderHandler struct {
	DB     *gorm.DB
	Orders *service.OrderService
}

func (h *OrderHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, orderPageSize)

	filter := service.OrderFilter{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
	}

	total, orders, err := h.Orders.List(c.Request().Context(), filter, offset, limit)
	if err != nil {
		return svcError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"orders": orders,
		"meta":   echo.Map{"page": page, "size": limit, "total": total},
	})
}

func (h *OrderHandler) Detail(c echo.Context) error {
	order, err := h.Orders.GetByNumber(c.Request().Context(), c.Param("number"), nil)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"order":   order,
		"items":   order.Items,
	})
}

// UpdateStatus moves an order to any status. There is no transition guard
// on purpose; the activity trail records old and new values.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order.status")

	var req struct {
		OrderNumber string `json:"order_number"`
		Status      string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.OrderNumber == "" || req.Status == "" {
		return errorResponse(c, http.StatusBadRequest, "order_number and status required")
	}

	order, oldStatus, err := h.Orders.UpdateStatus(ctx, req.OrderNumber, req.Status, adminID(c))
	if err != nil {
		l.Warn("status_update_rejected", "order_number", req.OrderNumber, "error", err)
		return svcError(c, err)
	}

	l.Info("order status updated",
		"order_number", order.OrderNumber, "from", oldStatus, "to", order.Status)
	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"message":        "order " + order.OrderNumber + " status updated",
		"status":         order.Status,
		"status_display": models.StatusDisplay[order.Status],
	})
}
