package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/huynhtran/minimart/internal/handlers"
	"github.com/huynhtran/minimart/internal/handlers/admin"
	midauth "github.com/huynhtran/minimart/internal/middleware/auth"
)

type Deps struct {
	Auth      *midauth.Middleware
	Catalog   *handlers.CatalogHandler
	Cart      *handlers.CartHandler
	Checkout  *handlers.CheckoutHandler
	Account   *handlers.AuthHandler
	Search    *handlers.SearchHandler
	Category  *admin.CategoryHandler
	Product   *admin.ProductHandler
	Order     *admin.OrderHandler
	Dashboard *admin.DashboardHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.Account.Register)
	v1.POST("/login", d.Account.Login)
	v1.POST("/logout", d.Account.Logout)

	store := v1.Group("", d.Auth.Optional)
	store.GET("/home", d.Catalog.Home)
	store.GET("/categories/:slug", d.Catalog.Category)
	store.GET("/products/:slug", d.Catalog.ProductDetail)
	store.GET("/search", d.Search.Search)

	store.GET("/cart", d.Cart.GetCart)
	store.POST("/cart", d.Cart.AddToCart)
	store.POST("/cart/update", d.Cart.UpdateCart)

	store.POST("/checkout", d.Checkout.Checkout)
	store.GET("/orders/complete", d.Checkout.OrderComplete)

	account := v1.Group("/account", d.Auth.RequireUser)
	account.GET("/orders", d.Checkout.OrderHistory)
	account.GET("/orders/:number", d.Checkout.OrderDetail)

	adm := v1.Group("/admin", d.Auth.RequireAdmin)
	adm.GET("/dashboard", d.Dashboard.Dashboard)

	adm.GET("/categories", d.Category.List)
	adm.GET("/categories/next-order", d.Category.NextOrder)
	adm.POST("/categories", d.Category.Create)
	adm.PUT("/categories/:id", d.Category.Update)
	adm.DELETE("/categories/:id", d.Category.Delete)

	adm.GET("/products", d.Product.List)
	adm.GET("/products/next-order", d.Product.NextOrder)
	adm.POST("/products", d.Product.Create)
	adm.PUT("/products/:id", d.Product.Update)
	adm.DELETE("/products/:id", d.Product.Delete)
	adm.POST("/products/display-settings", d.Product.DisplaySettings)

	adm.GET("/orders", d.Order.List)
	adm.GET("/orders/:number", d.Order.Detail)
	adm.POST("/orders/status", d.Order.UpdateStatus)
}
