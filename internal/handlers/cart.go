package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/logging"
	midauth "github.com/huynhtran/minimart/internal/middleware/auth"
	"github.com/huynhtran/minimart/internal/models"
	"github.com/huynhtran/minimart/internal/notify"
	"github.com/huynhtran/minimart/internal/service"
	"github.com/huynhtran/minimart/internal/token"
)

const cartCookie = "cartToken"

type CartHandler struct {
	DB       *gorm.DB
	Carts    *service.CartService
	Notifier *notify.Notifier
}

// resolveCart loads (or lazily creates) the caller's cart from the cart
// token cookie and the optional authenticated user, refreshing the cookie
// when a new token was issued.
func (h *CartHandler) resolveCart(c echo.Context) (*models.Cart, error) {
	var tokenValue string
	if ck, err := c.Cookie(cartCookie); err == nil {
		tokenValue = ck.Value
	}

	cart, err := h.Carts.GetOrCreateCart(c.Request().Context(), tokenValue, midauth.CurrentUser(c))
	if err != nil {
		return nil, err
	}

	if cart.Token != tokenValue {
		c.SetCookie(token.CreateCookie(cartCookie, cart.Token, "/", time.Now().Add(30*24*time.Hour)))
	}
	return cart, nil
}

func (h *CartHandler) userLabel(c echo.Context) string {
	if userID := midauth.CurrentUser(c); userID != nil {
		var user models.User
		if err := h.DB.WithContext(c.Request().Context()).First(&user, *userID).Error; err == nil {
			return user.FullName()
		}
	}
	return "Guest"
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	cart, err := h.resolveCart(c)
	if err != nil {
		l.Error("get_cart_error", "error", err)
		return svcError(c, err)
	}

	items, err := h.Carts.Items(ctx, cart)
	if err != nil {
		l.Error("get_cart_error", "error", err)
		return svcError(c, err)
	}
	total, count, err := h.Carts.Totals(ctx, cart)
	if err != nil {
		l.Error("get_cart_error", "error", err)
		return svcError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"cart":       cart,
		"items":      items,
		"cart_total": total,
		"cart_count": count,
	})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == 0 {
		return errorResponse(c, http.StatusBadRequest, "product_id required")
	}

	cart, err := h.resolveCart(c)
	if err != nil {
		l.Error("add_to_cart_error", "error", err)
		return svcError(c, err)
	}

	item, product, err := h.Carts.AddItem(ctx, cart, req.ProductID, req.Quantity)
	if err != nil {
		l.Warn("add_to_cart_rejected", "product_id", req.ProductID, "error", err)
		return svcError(c, err)
	}

	_, count, err := h.Carts.Totals(ctx, cart)
	if err != nil {
		l.Error("add_to_cart_error", "error", err)
		return svcError(c, err)
	}

	// Best-effort notification, detached from the request outcome.
	user := h.userLabel(c)
	go h.Notifier.CartAddition(context.Background(), user, product, item.Quantity)

	l.Info("item added to cart", "cart_id", cart.ID, "product_id", product.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"status":     "success",
		"message":    "item added to cart",
		"cart_count": count,
		"item_id":    item.ID,
	})
}

func (h *CartHandler) UpdateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart")

	var req struct {
		CartItemID uint   `json:"cart_item_id"`
		Action     string `json:"action"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}

	cart, err := h.resolveCart(c)
	if err != nil {
		l.Error("update_cart_error", "error", err)
		return svcError(c, err)
	}

	summary, err := h.Carts.UpdateItem(ctx, cart, req.CartItemID, req.Action)
	if err != nil {
		l.Warn("update_cart_rejected", "item_id", req.CartItemID, "action", req.Action, "error", err)
		return svcError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":        "success",
		"cart_total":    summary.Total,
		"cart_count":    summary.ItemCount,
		"item_subtotal": summary.ItemSubtotal,
		"item_id":       req.CartItemID,
	})
}
