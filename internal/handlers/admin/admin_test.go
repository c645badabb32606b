package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/config"
	"github.com/huynhtran/minimart/internal/models"
	"github.com/huynhtran/minimart/internal/service"
)

const testAdminID uint = 42

type testEnv struct {
	T         *testing.T
	E         *echo.Echo
	DB        *gorm.DB
	Category  *CategoryHandler
	Product   *ProductHandler
	Order     *OrderHandler
	Dashboard *DashboardHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	reorder := &service.ReorderService{DB: db}
	activity := &service.ActivityService{DB: db}
	orders := &service.OrderService{DB: db}

	return &testEnv{
		T:         t,
		E:         echo.New(),
		DB:        db,
		Category:  &CategoryHandler{DB: db, Reorder: reorder, Activity: activity},
		Product:   &ProductHandler{DB: db, Reorder: reorder, Activity: activity},
		Order:     &OrderHandler{DB: db, Orders: orders},
		Dashboard: &DashboardHandler{DB: db, Activity: activity},
	}
}

// doAdminRequest builds a context the way the admin gate would have: the
// acting admin's id is already set.
func (env *testEnv) doAdminRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	c.Set("userID", testAdminID)
	c.Set("role", "admin")
	return rec, c
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (env *testEnv) seedFinalizedOrder(number string) *models.Order {
	env.T.Helper()
	order := models.Order{
		OrderNumber: number,
		FullName:    "Tran Minh Huy",
		Phone:       "+84901234567",
		Address:     "12 Nguyen Hue",
		City:        "Ho Chi Minh City",
		Country:     "Vietnam",
		OrderTotal:  decimal.RequireFromString("50.00"),
		Status:      models.StatusPending,
		IsOrdered:   true,
	}
	require.NoError(env.T, env.DB.Create(&order).Error)
	return &order
}

func TestCategoryCreateShiftsSiblings(t *testing.T) {
	env := newTestEnv(t)

	for i, name := range []string{"Green", "Black", "Herbal"} {
		require.NoError(t, env.DB.Create(&models.Category{
			Name: name, DisplayOrder: i + 1, IsActive: true,
		}).Error)
	}

	rec, c := env.doAdminRequest(http.MethodPost, "/api/v1/admin/categories",
		map[string]interface{}{"name": "Oolong", "display_order": 2})
	require.NoError(t, env.Category.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.Contains(t, body["message"], "siblings shifted")

	var cats []models.Category
	require.NoError(t, env.DB.Order("display_order ASC").Find(&cats).Error)
	names := make([]string, 0, len(cats))
	for _, cat := range cats {
		names = append(names, fmt.Sprintf("%d:%s", cat.DisplayOrder, cat.Name))
	}
	require.Equal(t, []string{"1:Green", "2:Oolong", "3:Black", "4:Herbal"}, names)

	// The creation landed in the activity trail under the acting admin.
	var activity models.AdminActivity
	require.NoError(t, env.DB.First(&activity).Error)
	require.Equal(t, models.ActionCreate, activity.Action)
	require.Equal(t, "Category", activity.ModelName)
	require.Equal(t, testAdminID, activity.AdminID)
}

func TestCategoryNextOrderPrefillsGap(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.DB.Create(&models.Category{Name: "A", DisplayOrder: 1, IsActive: true}).Error)
	require.NoError(t, env.DB.Create(&models.Category{Name: "C", DisplayOrder: 3, IsActive: true}).Error)

	rec, c := env.doAdminRequest(http.MethodGet, "/api/v1/admin/categories/next-order", nil)
	require.NoError(t, env.Category.NextOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, decodeBody(t, rec)["display_order"])
}

func TestCategoryUpdateMovesPosition(t *testing.T) {
	env := newTestEnv(t)

	var first models.Category
	for i, name := range []string{"A", "B", "C"} {
		cat := models.Category{Name: name, DisplayOrder: i + 1, IsActive: true}
		require.NoError(t, env.DB.Create(&cat).Error)
		if i == 0 {
			first = cat
		}
	}

	rec, c := env.doAdminRequest(http.MethodPut, "/api/v1/admin/categories/1",
		map[string]interface{}{"name": "A", "display_order": 3})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(first.ID))
	require.NoError(t, env.Category.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, decodeBody(t, rec)["message"], "siblings adjusted")

	orders := map[string]int{}
	var cats []models.Category
	require.NoError(t, env.DB.Find(&cats).Error)
	for _, cat := range cats {
		orders[cat.Name] = cat.DisplayOrder
	}
	require.Equal(t, map[string]int{"B": 1, "C": 2, "A": 3}, orders)
}

func TestCategoryUpdateRejectsBlankName(t *testing.T) {
	env := newTestEnv(t)

	cat := models.Category{Name: "Keeper", DisplayOrder: 1, IsActive: true}
	require.NoError(t, env.DB.Create(&cat).Error)

	rec, c := env.doAdminRequest(http.MethodPut, "/api/v1/admin/categories/1",
		map[string]interface{}{"display_order": 1})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(cat.ID))
	require.NoError(t, env.Category.Update(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, false, decodeBody(t, rec)["success"])

	// The stored row came through untouched.
	var stored models.Category
	require.NoError(t, env.DB.First(&stored, cat.ID).Error)
	require.Equal(t, "Keeper", stored.Name)
}

func TestCategoryDeleteCascadesProducts(t *testing.T) {
	env := newTestEnv(t)

	cat := models.Category{Name: "Doomed", DisplayOrder: 1, IsActive: true}
	require.NoError(t, env.DB.Create(&cat).Error)
	require.NoError(t, env.DB.Create(&models.Product{
		CategoryID: cat.ID, Name: "Orphan", Description: "d",
		Price: decimal.RequireFromString("1.00"), IsAvailable: true,
	}).Error)

	rec, c := env.doAdminRequest(http.MethodDelete, "/api/v1/admin/categories/1", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(cat.ID))
	require.NoError(t, env.Category.Delete(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var catCount, prodCount int64
	require.NoError(t, env.DB.Model(&models.Category{}).Count(&catCount).Error)
	require.NoError(t, env.DB.Model(&models.Product{}).Count(&prodCount).Error)
	require.EqualValues(t, 0, catCount)
	require.EqualValues(t, 0, prodCount)
}

func TestProductCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	cat := models.Category{Name: "Tools", DisplayOrder: 1, IsActive: true}
	require.NoError(t, env.DB.Create(&cat).Error)

	rec, c := env.doAdminRequest(http.MethodPost, "/api/v1/admin/products",
		map[string]interface{}{"name": "", "category_id": cat.ID})
	require.NoError(t, env.Product.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, c = env.doAdminRequest(http.MethodPost, "/api/v1/admin/products",
		map[string]interface{}{"name": "Scoop", "category_id": cat.ID, "price": "-1.00"})
	require.NoError(t, env.Product.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, c = env.doAdminRequest(http.MethodPost, "/api/v1/admin/products",
		map[string]interface{}{"name": "Scoop", "category_id": 999, "price": "3.00"})
	require.NoError(t, env.Product.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, c = env.doAdminRequest(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{
		"name": "Scoop", "category_id": cat.ID, "price": "3.00",
		"main_image":        "scoop.jpg",
		"additional_images": []string{"scoop-2.jpg"},
	})
	require.NoError(t, env.Product.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var images []models.ProductImage
	require.NoError(t, env.DB.Order("id ASC").Find(&images).Error)
	require.Len(t, images, 2)
	require.True(t, images[0].IsMain)
	require.False(t, images[1].IsMain)
}

func TestOrderUpdateStatusEnvelope(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedFinalizedOrder("ORD-11111111")

	rec, c := env.doAdminRequest(http.MethodPost, "/api/v1/admin/orders/status",
		map[string]string{"order_number": order.OrderNumber, "status": models.StatusShipped})
	require.NoError(t, env.Order.UpdateStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, models.StatusShipped, body["status"])
	require.Equal(t, "Shipped", body["status_display"])

	rec, c = env.doAdminRequest(http.MethodPost, "/api/v1/admin/orders/status",
		map[string]string{"order_number": order.OrderNumber, "status": "archived"})
	require.NoError(t, env.Order.UpdateStatus(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, false, decodeBody(t, rec)["success"])

	rec, c = env.doAdminRequest(http.MethodPost, "/api/v1/admin/orders/status",
		map[string]string{"order_number": "ORD-FFFFFFFF", "status": models.StatusShipped})
	require.NoError(t, env.Order.UpdateStatus(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, c = env.doAdminRequest(http.MethodPost, "/api/v1/admin/orders/status",
		map[string]string{"order_number": "", "status": ""})
	require.NoError(t, env.Order.UpdateStatus(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderListFilters(t *testing.T) {
	env := newTestEnv(t)

	env.seedFinalizedOrder("ORD-AAAA0001")
	shipped := env.seedFinalizedOrder("ORD-BBBB0002")
	require.NoError(t, env.DB.Model(shipped).Update("status", models.StatusShipped).Error)

	rec, c := env.doAdminRequest(http.MethodGet, "/api/v1/admin/orders?status="+models.StatusShipped, nil)
	require.NoError(t, env.Order.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody(t, rec)["orders"], 1)

	rec, c = env.doAdminRequest(http.MethodGet, "/api/v1/admin/orders?search=BBBB", nil)
	require.NoError(t, env.Order.List(c))
	require.Len(t, decodeBody(t, rec)["orders"], 1)
}

func TestDashboardCounters(t *testing.T) {
	env := newTestEnv(t)

	cat := models.Category{Name: "Shelf", DisplayOrder: 1, IsActive: true}
	require.NoError(t, env.DB.Create(&cat).Error)
	require.NoError(t, env.DB.Create(&models.Product{
		CategoryID: cat.ID, Name: "Thing", Description: "d",
		Price: decimal.RequireFromString("2.00"), IsAvailable: true,
	}).Error)
	env.seedFinalizedOrder("ORD-CCCC0003")

	rec, c := env.doAdminRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	require.NoError(t, env.Dashboard.Dashboard(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.EqualValues(t, 1, body["total_products"])
	require.EqualValues(t, 1, body["total_categories"])
	require.EqualValues(t, 1, body["total_orders"])
	require.Len(t, body["recent_products"], 1)
	require.Len(t, body["recent_orders"], 1)
}
