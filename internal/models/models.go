package models

import (
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order status values. Transitions are deliberately unrestricted: an admin
// may move an order to any status, including backwards.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

var StatusDisplay = map[string]string{
	StatusPending:    "Pending",
	StatusProcessing: "Processing",
	StatusShipped:    "Shipped",
	StatusDelivered:  "Delivered",
	StatusCancelled:  "Cancelled",
}

// Admin activity actions.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionLogin  = "LOGIN"
	ActionLogout = "LOGOUT"
)

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;size:100"          json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	// 0 hides the category from ranked navigation, positive values form a
	// dense rank starting at 1.
	DisplayOrder int       `gorm:"default:0"                   json:"display_order"`
	IsActive     bool      `gorm:"default:true"                json:"is_active"`
	Products     []Product `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (cat *Category) BeforeSave(tx *gorm.DB) error {
	if cat.Slug == "" {
		cat.Slug = slug.Make(cat.Name)
	}
	return nil
}

type Product struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	CategoryID   uint            `gorm:"index;not null"              json:"category_id"`
	Name         string          `gorm:"size:200;not null"           json:"name"`
	Slug         string          `gorm:"uniqueIndex;size:200"        json:"slug"`
	Description  string          `gorm:"not null"                    json:"description"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock        uint            `gorm:"default:0"                   json:"stock"`
	IsAvailable  bool            `gorm:"default:true"                json:"is_available"`
	DisplayOrder int             `gorm:"default:0"                   json:"display_order"`
	IsFeatured   bool            `gorm:"default:false"               json:"is_featured"`

	MetaTitle       string `gorm:"size:200" json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	MetaKeywords    string `gorm:"size:255" json:"meta_keywords"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Images    []ProductImage `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

// BeforeSave fills the slug and SEO fields from the product itself when the
// admin left them blank.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.Slug == "" {
		p.Slug = slug.Make(p.Name)
	}
	if p.MetaTitle == "" {
		p.MetaTitle = p.Name
	}
	if p.MetaDescription == "" && p.Description != "" {
		// Truncate on runes, not bytes: descriptions are not ASCII-only.
		if r := []rune(p.Description); len(r) > 160 {
			p.MetaDescription = string(r[:160]) + "..."
		} else {
			p.MetaDescription = p.Description
		}
	}
	return nil
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"index;not null"           json:"product_id"`
	Image     string `gorm:"not null"                 json:"image"`
	IsMain    bool   `gorm:"default:false"            json:"is_main"`
}

// Cart is created lazily on the first add and survives checkout: only its
// items are deleted when an order is placed.
type Cart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"     json:"id"`
	Token     string     `gorm:"uniqueIndex;size:64;not null" json:"token"`
	UserID    *uint      `gorm:"index"                        json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE"  json:"items,omitempty"`
}

type CartItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"               json:"id"`
	CartID    uint    `gorm:"not null;index:idx_cart_product,unique" json:"cart_id"`
	ProductID uint    `gorm:"not null;index:idx_cart_product,unique" json:"product_id"`
	Quantity  uint    `gorm:"default:1;check:quantity>0"             json:"quantity"`
	Product   Product `json:"product,omitempty"`
}

// Subtotal uses the live product price; cart lines never snapshot prices.
func (it *CartItem) Subtotal() decimal.Decimal {
	return it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Order struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"     json:"id"`
	OrderNumber string `gorm:"uniqueIndex;size:20;not null" json:"order_number"`
	UserID      *uint  `gorm:"index"                        json:"user_id,omitempty"`

	FullName   string `gorm:"size:100;not null" json:"full_name"`
	Email      string `gorm:"size:100"          json:"email"`
	Phone      string `gorm:"size:20;not null"  json:"phone"`
	Address    string `gorm:"size:255;not null" json:"address"`
	City       string `gorm:"size:100;not null" json:"city"`
	Country    string `gorm:"size:100;not null" json:"country"`
	PostalCode string `gorm:"size:20"           json:"postal_code"`
	OrderNote  string `json:"order_note"`

	OrderTotal decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"order_total"`
	Status     string          `gorm:"size:20;default:pending"     json:"status"`
	IP         string          `gorm:"size:45"                     json:"ip"`
	IsOrdered  bool            `gorm:"default:false"               json:"is_ordered"`

	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Items     []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint `gorm:"index;not null"           json:"order_id"`
	ProductID uint `gorm:"not null"                 json:"product_id"`
	Quantity  uint `gorm:"not null"                 json:"quantity"`
	// Price is the unit price frozen at checkout time. Later catalog price
	// changes must not alter it.
	Price   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Product Product         `json:"product,omitempty"`
}

func (it *OrderItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"     json:"id"`
	PhoneNumber  string `gorm:"uniqueIndex;size:15;not null" json:"phone_number"`
	FirstName    string `gorm:"size:50"                      json:"first_name"`
	LastName     string `gorm:"size:50"                      json:"last_name"`
	PasswordHash string `gorm:"not null"                     json:"-"`
	IsStaff      bool   `gorm:"default:false"                json:"is_staff"`
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.PhoneNumber
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"           json:"id"`
	Token     string `gorm:"uniqueIndex;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"       json:"user_id"`
	ExpiresAt int64  `gorm:"not null"             json:"expires_at"`
	Revoked   bool   `gorm:"default:false"        json:"revoked"`
}

// AdminActivity is the append-only audit trail of back-office mutations.
// Rows are never updated or deleted.
type AdminActivity struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminID     uint      `gorm:"index;not null"           json:"admin_id"`
	Action      string    `gorm:"size:10;not null"         json:"action"`
	ModelName   string    `gorm:"size:50;not null"         json:"model_name"`
	ObjectID    *uint     `json:"object_id,omitempty"`
	Description string    `json:"description"`
	Timestamp   time.Time `gorm:"autoCreateTime;index"     json:"timestamp"`
}
