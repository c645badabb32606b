// Package admin holds the back-office handlers. Every mutation appends one
// activity row naming the action, entity and a human-readable description.
package admin

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/logging"
	midauth "github.com/huynhtran/minimart/internal/middleware/auth"
	"github.com/huynhtran/minimart/internal/models"
	"github.com/huynhtran/minimart/internal/service"
	"github.com/huynhtran/minimart/internal/util"
)

const adminPageSize = 10

type CategoryHandler struct {
	DB       *gorm.DB
	Reorder  *service.ReorderService
	Activity *service.ActivityService
}

func adminID(c echo.Context) uint {
	if id := midauth.CurrentUser(c); id != nil {
		return *id
	}
	return 0
}

func (h *CategoryHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, adminPageSize)

	var total int64
	if err := h.DB.WithContext(ctx).Model(&models.Category{}).Count(&total).Error; err != nil {
		return svcError(c, err)
	}

	var categories []models.Category
	if err := h.DB.WithContext(ctx).
		Order("display_order ASC, name ASC").
		Offset(offset).Limit(limit).
		Find(&categories).Error; err != nil {
		return svcError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"categories": categories,
		"meta":       echo.Map{"page": page, "size": limit, "total": total},
	})
}

// NextOrder pre-fills the display order field on the create form. It is a
// default, not a reservation: the admin may still submit any value.
func (h *CategoryHandler) NextOrder(c echo.Context) error {
	next, err := h.Reorder.NextFree(c.Request().Context(), service.KindCategory)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"display_order": next})
}

type categoryForm struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	DisplayOrder int    `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

func (h *CategoryHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.category.create")

	var req categoryForm
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return errorResponse(c, http.StatusBadRequest, "name required")
	}

	category := models.Category{
		Name:         req.Name,
		Description:  req.Description,
		Image:        req.Image,
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}

	shifted, err := h.Reorder.InsertAt(ctx, service.KindCategory, req.DisplayOrder, func(tx *gorm.DB) error {
		return tx.Create(&category).Error
	})
	if err != nil {
		return svcError(c, err)
	}

	if err := h.Activity.Append(ctx, adminID(c), models.ActionCreate, "Category", &category.ID,
		fmt.Sprintf("Created category: %s", category.Name)); err != nil {
		l.Error("activity_append_failed", "error", err)
	}

	message := fmt.Sprintf("category %q created", category.Name)
	if shifted {
		message = fmt.Sprintf("category %q inserted at position %d, siblings shifted", category.Name, req.DisplayOrder)
	}

	l.Info("category created", "category_id", category.ID, "shifted", shifted)
	return c.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"message":  message,
		"category": category,
	})
}

func (h *CategoryHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.category.update")

	id := uint(parseIntDefault(c.Param("id"), 0))

	var category models.Category
	if err := h.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		return errorResponse(c, http.StatusNotFound, "category not found")
	}

	var req categoryForm
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return errorResponse(c, http.StatusBadRequest, "name required")
	}

	currentOrder := category.DisplayOrder
	category.Name = req.Name
	category.Description = req.Description
	category.Image = req.Image
	category.DisplayOrder = req.DisplayOrder
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	shifted, err := h.Reorder.MoveTo(ctx, service.KindCategory, category.ID, currentOrder, req.DisplayOrder, func(tx *gorm.DB) error {
		return tx.Save(&category).Error
	})
	if err != nil {
		return svcError(c, err)
	}

	if err := h.Activity.Append(ctx, adminID(c), models.ActionUpdate, "Category", &category.ID,
		fmt.Sprintf("Updated category: %s", category.Name)); err != nil {
		l.Error("activity_append_failed", "error", err)
	}

	message := fmt.Sprintf("category %q updated", category.Name)
	if shifted {
		message = fmt.Sprintf("category %q moved to position %d, siblings adjusted", category.Name, req.DisplayOrder)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"message":  message,
		"category": category,
	})
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.category.delete")

	id := uint(parseIntDefault(c.Param("id"), 0))

	var category models.Category
	if err := h.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		return errorResponse(c, http.StatusNotFound, "category not found")
	}

	// Products are owned by their category and go with it.
	if err := h.DB.WithContext(ctx).Select("Products").Delete(&category).Error; err != nil {
		return svcError(c, err)
	}

	if err := h.Activity.Append(ctx, adminID(c), models.ActionDelete, "Category", &category.ID,
		fmt.Sprintf("Deleted category: %s", category.Name)); err != nil {
		l.Error("activity_append_failed", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "category deleted",
	})
}
