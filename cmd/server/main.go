package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/huynhtran/minimart/internal/config"
	"github.com/huynhtran/minimart/internal/es"
	"github.com/huynhtran/minimart/internal/handlers"
	"github.com/huynhtran/minimart/internal/handlers/admin"
	"github.com/huynhtran/minimart/internal/logging"
	midauth "github.com/huynhtran/minimart/internal/middleware/auth"
	loggingmw "github.com/huynhtran/minimart/internal/middleware/logging"
	"github.com/huynhtran/minimart/internal/notify"
	"github.com/huynhtran/minimart/internal/service"
	"github.com/huynhtran/minimart/internal/token"
	httpserver "github.com/huynhtran/minimart/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	notifier := notify.New(configuration.KAFKA_ADDRESS, configuration.NOTIFY_TOPIC, logger)

	searchHandler := &handlers.SearchHandler{Index: "products"}
	if configuration.ES_URL != "" {
		client, err := es.NewClient(configuration)
		if err != nil {
			log.Printf("elasticsearch unavailable, search disabled: %v", err)
		} else {
			searchHandler.ES = client
		}
	}

	tokens := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	authMW := &midauth.Middleware{Tokens: tokens}

	carts := &service.CartService{DB: db}
	orders := &service.OrderService{DB: db}
	reorder := &service.ReorderService{DB: db}
	activity := &service.ActivityService{DB: db}

	cartHandler := &handlers.CartHandler{DB: db, Carts: carts, Notifier: notifier}

	deps := httpserver.Deps{
		Auth:      authMW,
		Catalog:   &handlers.CatalogHandler{DB: db},
		Cart:      cartHandler,
		Checkout:  &handlers.CheckoutHandler{Cart: cartHandler, Orders: orders, Notifier: notifier},
		Account:   &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Activity: activity},
		Search:    searchHandler,
		Category:  &admin.CategoryHandler{DB: db, Reorder: reorder, Activity: activity},
		Product:   &admin.ProductHandler{DB: db, Reorder: reorder, Activity: activity},
		Order:     &admin.OrderHandler{DB: db, Orders: orders},
		Dashboard: &admin.DashboardHandler{DB: db, Activity: activity},
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := notifier.Close(); err != nil {
		log.Printf("notifier close error: %v", err)
	}

	log.Println("shutdown complete")
}
