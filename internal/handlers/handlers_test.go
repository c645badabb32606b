package handlers

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
	"github.com/huynhtran/minimart/internal/logging"
	"github.com/huynhtran/minimart/internal/models"
	"github.com/huynhtran/minimart/internal/notify"
	"github.com/huynhtran/minimart/internal/service"
)

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Auth     *AuthHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Catalog  *CatalogHandler
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := testDB(t)
	log := logging.New("error")
	notifier := notify.New("", "store_notifications", log)

	carts := &service.CartService{DB: db}
	orders := &service.OrderService{DB: db}
	activity := &service.ActivityService{DB: db}

	env := &testEnv{T: t, E: echo.New(), DB: db}
	env.Auth = &AuthHandler{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		Activity:      activity,
	}
	env.Cart = &CartHandler{DB: db, Carts: carts, Notifier: notifier}
	env.Checkout = &CheckoutHandler{Cart: env.Cart, Orders: orders, Notifier: notifier}
	env.Catalog = &CatalogHandler{DB: db}
	return env
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) seedProduct(name, price string, stock uint) *models.Product {
	env.T.Helper()
	cat := models.Category{Name: name + " shelf", IsActive: true, DisplayOrder: 1}
	if err := env.DB.Where("name = ?", cat.Name).FirstOrCreate(&cat).Error; err != nil {
		env.T.Fatalf("seed category: %v", err)
	}
	p := models.Product{
		CategoryID:  cat.ID,
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		IsAvailable: true,
	}
	require.NoError(env.T, env.DB.Create(&p).Error)
	return &p
}

// responseCookie digs the named cookie out of the recorded response.
func responseCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// requireAmount compares a decimal JSON value (string or number) by value,
// so "24" and "24.00" both pass against want "24.00".
func requireAmount(t *testing.T, want string, got interface{}) {
	t.Helper()
	var parsed decimal.Decimal
	var err error
	switch v := got.(type) {
	case string:
		parsed, err = decimal.NewFromString(v)
		require.NoError(t, err)
	case float64:
		parsed = decimal.NewFromFloat(v)
	default:
		t.Fatalf("unexpected amount type %T", got)
	}
	require.True(t, decimal.RequireFromString(want).Equal(parsed),
		"expected %s, got %v", want, got)
}
