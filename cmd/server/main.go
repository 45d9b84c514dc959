package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/api"
	"storefront/internal/database"
	"storefront/pkg/factory"
	"storefront/pkg/tracing"
)

func main() {
	appFactory, err := factory.NewFactory()
	if err != nil {
		fmt.Printf("Could not build application: %v\n", err)
		os.Exit(1)
	}
	defer appFactory.Close()

	log := appFactory.GetLogger()
	cfg := appFactory.GetConfig()

	tp := tracing.Init("storefront")
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("Could not shut down tracer provider", map[string]interface{}{"error": err.Error()})
		}
	}()

	log.Info("Starting storefront", map[string]interface{}{
		"env":    cfg.AppEnv,
		"driver": appFactory.GetConnectionManager().Driver(),
	})

	if err := database.NewMigrationService(appFactory.GetDB(), log).RunMigrations(); err != nil {
		log.Fatal("Could not apply migrations", map[string]interface{}{"error": err.Error()})
	}

	router := api.NewRouter(log,
		api.NewHealthHandler(appFactory.GetConnectionManager(), appFactory.GetCache(), log),
		api.NewOutletHandler(appFactory.GetOutletService(), log),
		api.NewCategoryHandler(appFactory.GetCategoryService(), log),
		api.NewProductHandler(appFactory.GetProductService(), log),
		api.NewSubscriptionHandler(appFactory.GetSubscriptionService(), log),
		api.NewCrashLogHandler(appFactory.GetCrashLogService(), log),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"port": cfg.Server.Port})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", map[string]interface{}{"error": err.Error()})
		return
	}

	log.Info("Server stopped", nil)
}
