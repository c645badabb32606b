package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/models"
)

type OrderService struct {
	DB *gorm.DB
}

// ShippingInfo is the checkout form. FullName, Phone, Address, City and
// Country are required, the rest is optional.
type ShippingInfo struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	OrderNote  string `json:"order_note"`
}

func (info *ShippingInfo) missingFields() []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"full_name", info.FullName},
		{"phone", info.Phone},
		{"address", info.Address},
		{"city", info.City},
		{"country", info.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func newOrderNumber() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ORD-" + hex[:8]
}

// Checkout converts the cart into an immutable order inside one transaction:
// order row, per-line price snapshots, conditional stock decrements and cart
// line deletion commit or roll back together. The cart row itself survives,
// empty, for reuse.
func (s *OrderService) Checkout(ctx context.Context, cart *models.Cart, info ShippingInfo, userID *uint, ip string) (*models.Order, error) {
	if missing := info.missingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %s: %w", strings.Join(missing, ", "), ErrValidation)
	}

	var order models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Preload("Product").Where("cart_id = ?", cart.ID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("cart is empty: %w", ErrValidation)
		}

		total := decimal.Zero
		for i := range items {
			total = total.Add(items[i].Subtotal())
		}

		number := newOrderNumber()
		for {
			var count int64
			if err := tx.Model(&models.Order{}).Where("order_number = ?", number).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				break
			}
			number = newOrderNumber()
		}

		order = models.Order{
			OrderNumber: number,
			UserID:      userID,
			FullName:    info.FullName,
			Email:       info.Email,
			Phone:       info.Phone,
			Address:     info.Address,
			City:        info.City,
			Country:     info.Country,
			PostalCode:  info.PostalCode,
			OrderNote:   info.OrderNote,
			OrderTotal:  total,
			Status:      models.StatusPending,
			IP:          ip,
			IsOrdered:   true,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range items {
			it := items[i]
			oi := models.OrderItem{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     it.Product.Price,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
			oi.Product = it.Product
			order.Items = append(order.Items, oi)

			// Decrement-if-sufficient as a single statement, so two
			// concurrent checkouts cannot drive stock negative.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%s is out of stock: %w", it.Product.Name, ErrInsufficientStock)
			}
		}

		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// GetByNumber returns a finalized order. When userID is non-nil the order
// must belong to that user.
func (s *OrderService) GetByNumber(ctx context.Context, orderNumber string, userID *uint) (*models.Order, error) {
	q := s.DB.WithContext(ctx).Preload("Items.Product").
		Where("order_number = ? AND is_ordered = ?", orderNumber, true)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var order models.Order
	if err := q.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

// History lists the user's finalized orders, newest first.
func (s *OrderService) History(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND is_ordered = ?", userID, true).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Search string
	Status string
}

func (s *OrderService) List(ctx context.Context, filter OrderFilter, offset, limit int) (int64, []models.Order, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{}).Where("is_ordered = ?", true)
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("order_number LIKE ? OR full_name LIKE ? OR phone LIKE ?", like, like, like)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// UpdateStatus moves a finalized order to newStatus and records the change
// in the activity log. Any status may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, orderNumber, newStatus string, adminID uint) (*models.Order, string, error) {
	if _, ok := models.StatusDisplay[newStatus]; !ok {
		return nil, "", fmt.Errorf("unknown status %q: %w", newStatus, ErrValidation)
	}

	var order models.Order
	var oldStatus string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_number = ? AND is_ordered = ?", orderNumber, true).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
			}
			return err
		}

		oldStatus = order.Status
		order.Status = newStatus
		if err := tx.Model(&order).Update("status", newStatus).Error; err != nil {
			return err
		}

		activity := models.AdminActivity{
			AdminID:     adminID,
			Action:      models.ActionUpdate,
			ModelName:   "Order",
			ObjectID:    &order.ID,
			Description: fmt.Sprintf("Updated order %s status from %s to %s", orderNumber, oldStatus, newStatus),
		}
		return tx.Create(&activity).Error
	})
	if err != nil {
		return nil, "", err
	}

	return &order, oldStatus, nil
}
