package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/models"
	"github.com/huynhtran/minimart/internal/util"
)

const storefrontPageSize = 8

type CatalogHandler struct {
	DB *gorm.DB
}

func (h *CatalogHandler) navigation(c echo.Context) ([]models.Category, error) {
	var categories []models.Category
	err := h.DB.WithContext(c.Request().Context()).
		Where("is_active = ? AND display_order > 0", true).
		Order("display_order ASC").
		Find(&categories).Error
	return categories, err
}

// Home lists available products by display order with the ranked navigation
// and up to four featured products.
func (h *CatalogHandler) Home(c echo.Context) error {
	ctx := c.Request().Context()

	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, storefrontPageSize)

	q := h.DB.WithContext(ctx).Model(&models.Product{}).Where("is_available = ?", true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return svcError(c, err)
	}

	var products []models.Product
	if err := q.Order("display_order ASC, name ASC").
		Offset(offset).Limit(limit).
		Find(&products).Error; err != nil {
		return svcError(c, err)
	}

	var featured []models.Product
	if err := h.DB.WithContext(ctx).
		Where("is_featured = ? AND is_available = ?", true, true).
		Order("display_order ASC").
		Limit(4).
		Find(&featured).Error; err != nil {
		return svcError(c, err)
	}

	categories, err := h.navigation(c)
	if err != nil {
		return svcError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"products":          products,
		"featured_products": featured,
		"categories":        categories,
		"meta": echo.Map{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// Category serves one category's available products by slug.
func (h *CatalogHandler) Category(c echo.Context) error {
	ctx := c.Request().Context()

	var category models.Category
	if err := h.DB.WithContext(ctx).
		Where("slug = ?", c.Param("slug")).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "category not found")
		}
		return svcError(c, err)
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, storefrontPageSize)

	q := h.DB.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ? AND is_available = ?", category.ID, true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return svcError(c, err)
	}

	var products []models.Product
	if err := q.Order("display_order ASC, name ASC").
		Offset(offset).Limit(limit).
		Find(&products).Error; err != nil {
		return svcError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"category": category,
		"products": products,
		"meta": echo.Map{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

// ProductDetail serves one product by slug with up to four related products
// from the same category.
func (h *CatalogHandler) ProductDetail(c echo.Context) error {
	ctx := c.Request().Context()

	var product models.Product
	if err := h.DB.WithContext(ctx).Preload("Images").
		Where("slug = ?", c.Param("slug")).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "product not found")
		}
		return svcError(c, err)
	}

	var related []models.Product
	if err := h.DB.WithContext(ctx).
		Where("category_id = ? AND is_available = ? AND id <> ?", product.CategoryID, true, product.ID).
		Order("display_order ASC, name ASC").
		Limit(4).
		Find(&related).Error; err != nil {
		return svcError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"product":          product,
		"related_products": related,
	})
}
