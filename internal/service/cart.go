package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/models"
)

// Cart update actions.
const (
	ActionIncrease = "increase"
	ActionDecrease = "decrease"
	ActionRemove   = "remove"
)

type CartService struct {
	DB *gorm.DB
}

// CartSummary is returned by every cart mutation so the caller can refresh
// its view without a second round trip. ItemSubtotal is zero when the
// affected line was removed.
type CartSummary struct {
	Total        decimal.Decimal
	ItemCount    uint
	ItemSubtotal decimal.Decimal
	Removed      bool
}

// GetOrCreateCart resolves a cart by its opaque token, creating a fresh one
// when the token is empty or stale. An authenticated user is attached to an
// ownerless cart on the way through.
func (s *CartService) GetOrCreateCart(ctx context.Context, token string, userID *uint) (*models.Cart, error) {
	var cart models.Cart
	found := false
	if token != "" {
		err := s.DB.WithContext(ctx).Where("token = ?", token).First(&cart).Error
		switch {
		case err == nil:
			found = true
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return nil, err
		}
	}

	if !found {
		cart = models.Cart{Token: uuid.NewString()}
		if err := s.DB.WithContext(ctx).Create(&cart).Error; err != nil {
			return nil, err
		}
	}

	if userID != nil && cart.UserID == nil {
		cart.UserID = userID
		if err := s.DB.WithContext(ctx).Model(&cart).Update("user_id", *userID).Error; err != nil {
			return nil, err
		}
	}

	return &cart, nil
}

// AddItem creates or increments the (cart, product) line. The stock ceiling
// is checked against the prospective line quantity, not just the delta.
func (s *CartService) AddItem(ctx context.Context, cart *models.Cart, productID, quantity uint) (*models.CartItem, *models.Product, error) {
	if quantity < 1 {
		quantity = 1
	}

	var product models.Product
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND is_available = ?", productID, true).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("product not available: %w", ErrNotFound)
		}
		return nil, nil, err
	}

	var item models.CartItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			First(&item).Error
		switch {
		case err == nil:
			if item.Quantity+quantity > product.Stock {
				return fmt.Errorf("only %d in stock: %w", product.Stock, ErrInsufficientStock)
			}
			item.Quantity += quantity
			return tx.Save(&item).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			if quantity > product.Stock {
				return fmt.Errorf("only %d in stock: %w", product.Stock, ErrInsufficientStock)
			}
			item = models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
			return tx.Create(&item).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, nil, err
	}

	return &item, &product, nil
}

// UpdateItem applies one of increase/decrease/remove to a cart line.
// Decrease on a quantity of one removes the line, as does remove.
func (s *CartService) UpdateItem(ctx context.Context, cart *models.Cart, itemID uint, action string) (*CartSummary, error) {
	var item models.CartItem
	if err := s.DB.WithContext(ctx).Preload("Product").
		Where("id = ? AND cart_id = ?", itemID, cart.ID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item is not in the cart: %w", ErrNotFound)
		}
		return nil, err
	}

	removed := false
	switch action {
	case ActionIncrease:
		if item.Quantity+1 > item.Product.Stock {
			return nil, fmt.Errorf("only %d in stock: %w", item.Product.Stock, ErrInsufficientStock)
		}
		item.Quantity++
		if err := s.DB.WithContext(ctx).Save(&item).Error; err != nil {
			return nil, err
		}
	case ActionDecrease:
		if item.Quantity > 1 {
			item.Quantity--
			if err := s.DB.WithContext(ctx).Save(&item).Error; err != nil {
				return nil, err
			}
		} else {
			if err := s.DB.WithContext(ctx).Delete(&item).Error; err != nil {
				return nil, err
			}
			removed = true
		}
	case ActionRemove:
		if err := s.DB.WithContext(ctx).Delete(&item).Error; err != nil {
			return nil, err
		}
		removed = true
	default:
		return nil, fmt.Errorf("unknown action %q: %w", action, ErrValidation)
	}

	total, count, err := s.Totals(ctx, cart)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{Total: total, ItemCount: count, Removed: removed}
	if !removed {
		summary.ItemSubtotal = item.Subtotal()
	}
	return summary, nil
}

// Items loads the cart lines with their products attached.
func (s *CartService) Items(ctx context.Context, cart *models.Cart) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := s.DB.WithContext(ctx).Preload("Product").
		Where("cart_id = ?", cart.ID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Totals recomputes the cart total and item count from live product prices
// on every call. Nothing is cached: a catalog price change shows up in an
// open cart immediately.
func (s *CartService) Totals(ctx context.Context, cart *models.Cart) (decimal.Decimal, uint, error) {
	items, err := s.Items(ctx, cart)
	if err != nil {
		return decimal.Zero, 0, err
	}

	total := decimal.Zero
	var count uint
	for i := range items {
		total = total.Add(items[i].Subtotal())
		count += items[i].Quantity
	}
	return total, count, nil
}
