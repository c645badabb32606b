package admin

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/logging"
	"github.com/huynhtran/minimart/internal/models"
	"github.com/huynhtran/minimart/internal/service"
	"github.com/huynhtran/minimart/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Reorder  *service.ReorderService
	Activity *service.ActivityService
}

// List supports the back-office filters: free-text search over name,
// description and category name, featured/available toggles and sorting.
func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, adminPageSize)

	q := h.DB.WithContext(ctx).Model(&models.Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id")

	if search := c.QueryParam("search"); search != "" {
		like := "%" + search + "%"
		q = q.Where("products.name LIKE ? OR products.description LIKE ? OR categories.name LIKE ?", like, like, like)
	}
	if c.QueryParam("featured") != "" {
		q = q.Where("products.is_featured = ?", true)
	}
	if c.QueryParam("available") != "" {
		q = q.Where("products.is_available = ?", true)
	}

	sortBy := c.QueryParam("sort")
	switch sortBy {
	case "", "display_order":
		q = q.Order("products.display_order ASC, products.name ASC")
	case "-display_order":
		q = q.Order("products.display_order DESC, products.name ASC")
	case "price":
		q = q.Order("products.price ASC, products.name ASC")
	case "-price":
		q = q.Order("products.price DESC, products.name ASC")
	case "name":
		q = q.Order("products.name ASC")
	case "-name":
		q = q.Order("products.name DESC")
	case "created_at":
		q = q.Order("products.created_at ASC")
	case "-created_at":
		q = q.Order("products.created_at DESC")
	default:
		return errorResponse(c, http.StatusBadRequest, "unknown sort field")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return svcError(c, err)
	}

	var products []models.Product
	if err := q.Preload("Images").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return svcError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"products": products,
		"meta":     echo.Map{"page": page, "size": limit, "total": total},
	})
}

func (h *ProductHandler) NextOrder(c echo.Context) error {
	next, err := h.Reorder.NextFree(c.Request().Context(), service.KindProduct)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"display_order": next})
}

type productForm struct {
	CategoryID   uint            `json:"category_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Stock        uint            `json:"stock"`
	IsAvailable  *bool           `json:"is_available"`
	DisplayOrder int             `json:"display_order"`
	IsFeatured   bool            `json:"is_featured"`

	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	MetaKeywords    string `json:"meta_keywords"`

	MainImage        string   `json:"main_image"`
	AdditionalImages []string `json:"additional_images"`

	// Update-only image management.
	DeletedImages    []uint `json:"deleted_images"`
	DeletedMainImage bool   `json:"deleted_main_image"`
	MainImageID      uint   `json:"main_image_id"`
}

func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.product.create")

	var req productForm
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.CategoryID == 0 {
		return errorResponse(c, http.StatusBadRequest, "name and category_id required")
	}
	if req.Price.IsNegative() {
		return errorResponse(c, http.StatusBadRequest, "price must not be negative")
	}

	var category models.Category
	if err := h.DB.WithContext(ctx).First(&category, req.CategoryID).Error; err != nil {
		return errorResponse(c, http.StatusBadRequest, "unknown category")
	}

	product := models.Product{
		CategoryID:      req.CategoryID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		Stock:           req.Stock,
		IsAvailable:     req.IsAvailable == nil || *req.IsAvailable,
		DisplayOrder:    req.DisplayOrder,
		IsFeatured:      req.IsFeatured,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		MetaKeywords:    req.MetaKeywords,
	}

	shifted, err := h.Reorder.InsertAt(ctx, service.KindProduct, req.DisplayOrder, func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		if req.MainImage != "" {
			img := models.ProductImage{ProductID: product.ID, Image: req.MainImage, IsMain: true}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}
		for _, image := range req.AdditionalImages {
			img := models.ProductImage{ProductID: product.ID, Image: image}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return svcError(c, err)
	}

	if err := h.Activity.Append(ctx, adminID(c), models.ActionCreate, "Product", &product.ID,
		fmt.Sprintf("Created product: %s", product.Name)); err != nil {
		l.Error("activity_append_failed", "error", err)
	}

	message := fmt.Sprintf("product %q created", product.Name)
	if shifted {
		message = fmt.Sprintf("product %q inserted at position %d, siblings shifted", product.Name, req.DisplayOrder)
	}

	l.Info("product created", "product_id", product.ID, "shifted", shifted)
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": message,
		"product": product,
	})
}

func (h *ProductHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.product.update")

	id := uint(parseIntDefault(c.Param("id"), 0))

	var product models.Product
	if err := h.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return errorResponse(c, http.StatusNotFound, "product not found")
	}

	var req productForm
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.Price.IsNegative() {
		return errorResponse(c, http.StatusBadRequest, "price must not be negative")
	}

	currentOrder := product.DisplayOrder
	product.CategoryID = req.CategoryID
	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Stock = req.Stock
	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	}
	product.DisplayOrder = req.DisplayOrder
	product.IsFeatured = req.IsFeatured
	product.MetaTitle = req.MetaTitle
	product.MetaDescription = req.MetaDescription
	product.MetaKeywords = req.MetaKeywords

	shifted, err := h.Reorder.MoveTo(ctx, service.KindProduct, product.ID, currentOrder, req.DisplayOrder, func(tx *gorm.DB) error {
		if err := tx.Save(&product).Error; err != nil {
			return err
		}
		return h.applyImageChanges(tx, &product, &req)
	})
	if err != nil {
		return svcError(c, err)
	}

	if err := h.Activity.Append(ctx, adminID(c), models.ActionUpdate, "Product", &product.ID,
		fmt.Sprintf("Updated product: %s", product.Name)); err != nil {
		l.Error("activity_append_failed", "error", err)
	}

	message := fmt.Sprintf("product %q updated", product.Name)
	if shifted {
		message = fmt.Sprintf("product %q moved to position %d, siblings adjusted", product.Name, req.DisplayOrder)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": message,
		"product": product,
	})
}

// applyImageChanges keeps the best-effort "one main image" invariant:
// promoting an image first demotes every other image of the product.
func (h *ProductHandler) applyImageChanges(tx *gorm.DB, product *models.Product, req *productForm) error {
	if len(req.DeletedImages) > 0 {
		if err := tx.Where("product_id = ? AND id IN ?", product.ID, req.DeletedImages).
			Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
	}

	if req.MainImageID != 0 {
		if err := tx.Model(&models.ProductImage{}).
			Where("product_id = ?", product.ID).
			Update("is_main", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ProductImage{}).
			Where("id = ? AND product_id = ?", req.MainImageID, product.ID).
			Update("is_main", true).Error; err != nil {
			return err
		}
	}

	if req.MainImage != "" {
		if err := tx.Model(&models.ProductImage{}).
			Where("product_id = ?", product.ID).
			Update("is_main", false).Error; err != nil {
			return err
		}
		img := models.ProductImage{ProductID: product.ID, Image: req.MainImage, IsMain: true}
		if err := tx.Create(&img).Error; err != nil {
			return err
		}
	} else if req.DeletedMainImage && req.MainImageID == 0 {
		// Main image gone and nothing chosen: promote the first remaining one.
		var first models.ProductImage
		if err := tx.Where("product_id = ?", product.ID).Order("id ASC").First(&first).Error; err == nil {
			if err := tx.Model(&first).Update("is_main", true).Error; err != nil {
				return err
			}
		}
	}

	for _, image := range req.AdditionalImages {
		img := models.ProductImage{ProductID: product.ID, Image: image}
		if err := tx.Create(&img).Error; err != nil {
			return err
		}
	}
	return nil
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.product.delete")

	id := uint(parseIntDefault(c.Param("id"), 0))

	var product models.Product
	if err := h.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return errorResponse(c, http.StatusNotFound, "product not found")
	}

	if err := h.DB.WithContext(ctx).Select("Images").Delete(&product).Error; err != nil {
		return svcError(c, err)
	}

	if err := h.Activity.Append(ctx, adminID(c), models.ActionDelete, "Product", &product.ID,
		fmt.Sprintf("Deleted product: %s", product.Name)); err != nil {
		l.Error("activity_append_failed", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "product deleted",
	})
}

// DisplaySettings applies the bulk display page actions: which products are
// featured, raw display_order values, and per-product SEO fields.
func (h *ProductHandler) DisplaySettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.product.display")

	var req struct {
		FeaturedIDs *[]uint `json:"featured_products"`
		Orders      []struct {
			ProductID    uint `json:"product_id"`
			DisplayOrder int  `json:"display_order"`
		} `json:"display_orders"`
		SEO *struct {
			ProductID       uint   `json:"product_id"`
			MetaTitle       string `json:"meta_title"`
			MetaDescription string `json:"meta_description"`
			MetaKeywords    string `json:"meta_keywords"`
		} `json:"seo"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}

	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.FeaturedIDs != nil {
			if err := tx.Model(&models.Product{}).Where("1 = 1").
				Update("is_featured", false).Error; err != nil {
				return err
			}
			if len(*req.FeaturedIDs) > 0 {
				if err := tx.Model(&models.Product{}).Where("id IN ?", *req.FeaturedIDs).
					Update("is_featured", true).Error; err != nil {
					return err
				}
			}
		}

		for _, o := range req.Orders {
			if err := tx.Model(&models.Product{}).Where("id = ?", o.ProductID).
				Update("display_order", o.DisplayOrder).Error; err != nil {
				return err
			}
		}

		if req.SEO != nil {
			updates := map[string]interface{}{
				"meta_title":       req.SEO.MetaTitle,
				"meta_description": req.SEO.MetaDescription,
				"meta_keywords":    req.SEO.MetaKeywords,
			}
			res := tx.Model(&models.Product{}).Where("id = ?", req.SEO.ProductID).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %d: %w", req.SEO.ProductID, service.ErrNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return svcError(c, err)
	}

	if err := h.Activity.Append(ctx, adminID(c), models.ActionUpdate, "Product", nil,
		"Updated display settings"); err != nil {
		l.Error("activity_append_failed", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "display settings updated",
	})
}
