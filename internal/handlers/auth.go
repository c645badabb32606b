package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/hash"
	"github.com/huynhtran/minimart/internal/logging"
	"github.com/huynhtran/minimart/internal/models"
	"github.com/huynhtran/minimart/internal/service"
	"github.com/huynhtran/minimart/internal/token"
)

type AuthHandler struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
	Activity      *service.ActivityService
}

func roleOf(u *models.User) string {
	if u.IsStaff {
		return "admin"
	}
	return "user"
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "register")

	var req struct {
		PhoneNumber string `json:"phone_number"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Password    string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.PhoneNumber == "" || req.Password == "" {
		return errorResponse(c, http.StatusBadRequest, "phone_number and password required")
	}

	var existing models.User
	err := h.DB.WithContext(ctx).Where("phone_number = ?", req.PhoneNumber).First(&existing).Error
	if err == nil {
		return errorResponse(c, http.StatusBadRequest, "phone number already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return svcError(c, err)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return svcError(c, err)
	}

	user := models.User{
		PhoneNumber:  req.PhoneNumber,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hashed,
	}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return svcError(c, err)
	}

	l.Info("user registered", "user_id", user.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "account created, please log in",
		"user":    user,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "login")

	var req struct {
		PhoneNumber string `json:"phone_number"`
		Password    string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.WithContext(ctx).Where("phone_number = ?", req.PhoneNumber).First(&user).Error; err != nil {
		return errorResponse(c, http.StatusUnauthorized, "invalid phone number or password")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return errorResponse(c, http.StatusUnauthorized, "invalid phone number or password")
	}

	role := roleOf(&user)
	access, err := token.SignAccessToken(user.ID, role, h.JWTSecret)
	if err != nil {
		return svcError(c, err)
	}
	refresh, err := token.SignRefreshToken(user.ID, role, h.RefreshSecret)
	if err != nil {
		return svcError(c, err)
	}
	if err := token.SaveRefreshToken(h.DB.WithContext(ctx), refresh, user.ID); err != nil {
		return svcError(c, err)
	}

	c.SetCookie(token.CreateCookie("accessToken", access, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", refresh, "/", time.Now().Add(token.RefreshTTL)))

	if user.IsStaff {
		if err := h.Activity.Append(ctx, user.ID, models.ActionLogin, "User", &user.ID, "Admin logged in"); err != nil {
			l.Error("activity_append_failed", "error", err)
		}
	}

	l.Info("user logged in", "user_id", user.ID, "role", role)
	return c.JSON(http.StatusOK, echo.Map{
		"status":        "success",
		"access_token":  access,
		"refresh_token": refresh,
		"user":          user,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "logout")

	if ck, err := c.Cookie("refreshToken"); err == nil {
		var stored models.RefreshToken
		if err := h.DB.WithContext(ctx).Where("token = ?", ck.Value).First(&stored).Error; err == nil {
			h.DB.WithContext(ctx).Model(&stored).Update("revoked", true)

			var user models.User
			if err := h.DB.WithContext(ctx).First(&user, stored.UserID).Error; err == nil && user.IsStaff {
				if err := h.Activity.Append(ctx, user.ID, models.ActionLogout, "User", &user.ID, "Admin logged out"); err != nil {
					l.Error("activity_append_failed", "error", err)
				}
			}
		}
	}

	c.SetCookie(token.CreateCookie("accessToken", "", "/", time.Unix(0, 0)))
	c.SetCookie(token.CreateCookie("refreshToken", "", "/", time.Unix(0, 0)))

	return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "logged out"})
}
