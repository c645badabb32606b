package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/models"
	"github.com/huynhtran/minimart/internal/service"
	"github.com/huynhtran/minimart/internal/util"
)

type DashboardHandler struct {
	DB       *gorm.DB
	Activity *service.ActivityService
}

func (h *DashboardHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, adminPageSize)

	activityTotal, activities, err := h.Activity.Recent(ctx, offset, limit)
	if err != nil {
		return svcError(c, err)
	}

	var totalProducts, totalCategories, totalOrders int64
	if err := h.DB.WithContext(ctx).Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return svcError(c, err)
	}
	if err := h.DB.WithContext(ctx).Model(&models.Category{}).Count(&totalCategories).Error; err != nil {
		return svcError(c, err)
	}
	if err := h.DB.WithContext(ctx).Model(&models.Order{}).
		Where("is_ordered = ?", true).Count(&totalOrders).Error; err != nil {
		return svcError(c, err)
	}

	var recentProducts []models.Product
	if err := h.DB.WithContext(ctx).Order("created_at DESC").Limit(5).
		Find(&recentProducts).Error; err != nil {
		return svcError(c, err)
	}

	var recentOrders []models.Order
	if err := h.DB.WithContext(ctx).Where("is_ordered = ?", true).
		Order("created_at DESC").Limit(5).
		Find(&recentOrders).Error; err != nil {
		return svcError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_products":   totalProducts,
		"total_categories": totalCategories,
		"total_orders":     totalOrders,
		"recent_products":  recentProducts,
		"recent_orders":    recentOrders,
		"activities":       activities,
		"meta":             echo.Map{"page": page, "size": limit, "total": activityTotal},
	})
}
