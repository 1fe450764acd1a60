package main

import (
	"context"
	"damoyeo/cmd/app"
	"damoyeo/internal/config"
	handlers "damoyeo/internal/handler"
	"damoyeo/internal/middleware"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// setting up config
	cfg := config.LoadConfig()

	if cfg.JWTSecretKey == "" {
		log.Fatal("JWT_SECRET_KEY не установлен в .env файле")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.App(ctx, cfg)
	defer application.Close()

	handler := handlers.NewHandlers(application.Services, cfg)
	handler.Health = func(ctx context.Context) error {
		return application.DB.PingContext(ctx)
	}

	handlerChain := middleware.Chain(
		handler.Router(),
		middleware.AuthMiddleware(application.Services.Auth, handlers.PublicPaths...),
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware,
	)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           handlerChain,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Printf("Сервер запущен на %s", addr)
		log.Printf("База данных: %s", cfg.DB.DbNAME)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Останавливаем сервер...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Ошибка остановки сервера: %v", err)
	}
}
