// File path: cmd/fillora/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fillora/fillora/internal/api"
	"github.com/fillora/fillora/internal/common"
	"github.com/fillora/fillora/internal/llm"
	"github.com/fillora/fillora/internal/store"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("fillora: .env file not loaded", "error", err)
	} else {
		logger.Info("fillora: environment loaded from .env")
	}

	addr := flag.String("addr", ":8082", "listen address")
	dbPath := flag.String("db", defaultDBPath(), "path to the SQLite database")
	retryDelay := flag.Duration("retry-delay", 0, "pause between auto-continue attempts (0 uses defaults)")
	flag.Parse()

	logger.Info("fillora: startup initiated", "addr", *addr, "db", *dbPath)

	st, err := store.Open(*dbPath)
	if err != nil {
		logger.Error("fillora: store initialization failed", "error", err)
		fmt.Println("store error:", err)
		os.Exit(1)
	}
	defer st.Close()

	cfg := api.DefaultConfig()
	if *retryDelay > 0 {
		cfg.Compile.RetryDelay = *retryDelay
	}
	server, err := api.NewServer(st, llm.NewProvider(), &cfg)
	if err != nil {
		logger.Error("fillora: server initialization failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	logger.Info("fillora: listening", "addr", *addr)

	select {
	case <-ctx.Done():
		logger.Info("fillora: shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("fillora: server failed", "error", err)
			fmt.Println("server error:", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("fillora: shutdown incomplete", "error", err)
	}
	logger.Info("fillora: stopped")
}

func defaultDBPath() string {
	if env := os.Getenv("FILLORA_DB"); env != "" {
		return env
	}
	return filepath.Join(os.TempDir(), "fillora.db")
}
