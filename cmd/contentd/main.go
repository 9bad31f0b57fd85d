package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jbeauty/content/internal/app"
	"jbeauty/content/internal/cms"
	"jbeauty/content/internal/config"
	"jbeauty/content/internal/notice"
)

func main() {
	cfg := config.Load()

	var clientOpts []cms.Option
	if cfg.FetchRetries > 0 {
		clientOpts = append(clientOpts, cms.WithRetryPolicy(
			uint(cfg.FetchRetries), cfg.FetchRetryDelay, cfg.FetchRetryMax,
		))
	}
	client := cms.New(cfg.CMSBaseURL, cfg.CMSAPIVersion, cfg.CMSDataset, clientOpts...)

	var store notice.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for notice suppression storage")
		redisStore, err := notice.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		log.Printf("Using in-memory notice suppression storage")
		store = notice.NewMemoryStore()
	}

	service := app.New(cfg, client, store)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("content API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
