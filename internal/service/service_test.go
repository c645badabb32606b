package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/config"
	"github.com/huynhtran/minimart/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Named shared-cache DSN so every connection in the pool sees the same
	// in-memory database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func makeCategory(t *testing.T, db *gorm.DB, name string, displayOrder int) *models.Category {
	t.Helper()
	cat := models.Category{Name: name, DisplayOrder: displayOrder, IsActive: true}
	require.NoError(t, db.Create(&cat).Error)
	return &cat
}

func makeProduct(t *testing.T, db *gorm.DB, categoryID uint, name, price string, stock uint) *models.Product {
	t.Helper()
	p := models.Product{
		CategoryID:  categoryID,
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		IsAvailable: true,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got),
		"expected %s, got %s", want, got.String())
}
