package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rvalette/mealmind/api/bootstrap"
	"github.com/rvalette/mealmind/api/config"
	"github.com/rvalette/mealmind/api/router"
)

func main() {
	if err := bootstrap.Ensure(); err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("bootstrap failed", zap.Error(err))
	}

	cfg := config.AppConfig
	logger := bootstrap.GetLogger()
	defer logger.Sync() //nolint:errcheck

	gin.SetMode(cfg.GinMode)

	engine := router.New(
		logger,
		bootstrap.GetAuthMiddleware(),
		bootstrap.GetProfileService(),
		bootstrap.GetMealplanService(),
		bootstrap.GetBillingService(),
		bootstrap.GetPaymentGateway(),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
