package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Akaza561/med-bridge/internal/config"
	"github.com/Akaza561/med-bridge/internal/gemini"
	httpapi "github.com/Akaza561/med-bridge/internal/http"
	"github.com/Akaza561/med-bridge/internal/repository"
	"github.com/Akaza561/med-bridge/internal/service"
	"github.com/Akaza561/med-bridge/internal/session"
	"github.com/Akaza561/med-bridge/internal/storage"
	"github.com/Akaza561/med-bridge/internal/token"

	_ "github.com/Akaza561/med-bridge/docs"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file, using process environment")
	}
	cfg := config.Load()

	var kv storage.KV
	if cfg.RedisAddr != "" {
		rkv := storage.NewRedisKV(cfg.RedisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rkv.Ping(ctx); err != nil {
			cancel()
			log.WithError(err).Fatal("redis unreachable")
		}
		cancel()
		kv = rkv
		log.WithField("addr", cfg.RedisAddr).Info("using redis storage")
	} else {
		fkv, err := storage.NewFileKV(cfg.DataDir)
		if err != nil {
			log.WithError(err).Fatal("cannot open data dir")
		}
		kv = fkv
		log.WithField("dir", cfg.DataDir).Info("using file storage")
	}

	store := repository.NewStore(kv, log)
	orderRepo := repository.NewStoreOrders(store)
	sessions := session.NewManager()
	tokens := token.New()
	analyzer := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, log)

	authSvc := service.NewAuthService(service.AllowAll{}, sessions, store, store, []byte(cfg.JWTSecret))
	catalogSvc := service.NewCatalogService(store, store, sessions)
	scanSvc := service.NewScanService(analyzer, store, sessions, tokens, log)
	orderSvc := service.NewOrderService(store, orderRepo, sessions, tokens)

	srv := httpapi.NewServer(authSvc, catalogSvc, scanSvc, orderSvc, sessions)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	go func() {
		log.WithField("addr", httpServer.Addr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}
