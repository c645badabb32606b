// Package auth wires the token service into echo middleware. Admin-only
// routes are gated by an explicit role check that answers 403 instead of
// proceeding.
package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/huynhtran/minimart/internal/token"
)

type Middleware struct {
	Tokens *token.TokenService
}

func setUserContext(c echo.Context, claims jwt.MapClaims) {
	if sub, ok := claims["sub"].(float64); ok {
		c.Set("userID", uint(sub))
	}
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}
}

// CurrentUser returns the authenticated user id set by the middleware, or
// nil for anonymous requests.
func CurrentUser(c echo.Context) *uint {
	if v, ok := c.Get("userID").(uint); ok {
		return &v
	}
	return nil
}

func (m *Middleware) refresh(c echo.Context) (jwt.MapClaims, error) {
	newAccess, newRefresh, claims, err := m.Tokens.CheckCookie(c)
	if err != nil {
		return nil, err
	}
	if newRefresh != "" {
		c.SetCookie(token.CreateCookie("accessToken", newAccess, "/", time.Now().Add(token.AccessTTL)))
		c.SetCookie(token.CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(token.RefreshTTL)))
	}
	setUserContext(c, claims)
	return claims, nil
}

// Optional identifies the caller when auth cookies are present but lets
// anonymous requests through. Storefront and cart routes use it.
func (m *Middleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := c.Cookie("accessToken"); err != nil {
			if _, err := c.Cookie("refreshToken"); err != nil {
				return next(c)
			}
		}
		if _, err := m.refresh(c); err != nil {
			// Stale cookies degrade to an anonymous session.
			return next(c)
		}
		return next(c)
	}
}

// RequireUser rejects anonymous requests.
func (m *Middleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := m.refresh(c); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"status":  "error",
				"message": "login required",
			})
		}
		return next(c)
	}
}

// RequireAdmin rejects anyone without the admin role.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.refresh(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false,
				"message": "login required",
			})
		}
		if role, _ := claims["role"].(string); role != "admin" {
			return c.JSON(http.StatusForbidden, echo.Map{
				"success": false,
				"message": "permission denied",
			})
		}
		return next(c)
	}
}
