// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Gentle Inbox — Inbound Pipeline Service
//
// Entry point for the feedback pipeline. It:
//  1. Loads configuration from config.yaml / environment
//  2. Connects to PostgreSQL and Redis
//  3. Starts forwarding workers draining the Redis queue
//  4. Serves the inbound webhook, transformer, and dashboard endpoints
//  5. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gentleinbox/ingestion/internal/config"
	"github.com/gentleinbox/ingestion/internal/feedbackapi"
	"github.com/gentleinbox/ingestion/internal/queue"
	"github.com/gentleinbox/ingestion/internal/rewrite"
	"github.com/gentleinbox/ingestion/internal/store"
	"github.com/gentleinbox/ingestion/internal/transform"
	"github.com/gentleinbox/ingestion/internal/webhook"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting Gentle Inbox inbound pipeline")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"forward_queue", cfg.ForwardQueue,
		"rewrite_model", cfg.Rewrite.Model,
		"workers", cfg.Workers,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	if err := pgPool.Ping(ctx); err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	publisher := queue.NewPublisher(rdb, cfg.ForwardQueue)
	if err := publisher.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	// --- Storage ---
	st, err := store.New(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise store", "error", err)
		os.Exit(1)
	}

	// --- Rewrite Client ---
	rewriter := rewrite.NewClient(rewrite.Config{
		APIKey:  cfg.Rewrite.APIKey,
		BaseURL: cfg.Rewrite.BaseURL,
		Model:   cfg.Rewrite.Model,
		Timeout: cfg.Rewrite.Timeout,
	})

	// --- Forwarding Workers ---
	worker := queue.NewWorker(queue.WorkerConfig{
		Redis:          queue.NewRedisLister(rdb),
		QueueName:      cfg.ForwardQueue,
		TransformerURL: cfg.TransformerURL,
	})
	worker.Start(ctx, cfg.Workers)

	// --- Handlers ---
	inbound := webhook.NewHandler(st, publisher)
	transformer := transform.NewHandler(st, rewriter)
	dashboard := feedbackapi.NewHandler(st)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/inbound", inbound.ServeInbound)
	mux.HandleFunc("POST /transform", transformer.ServeTransform)
	mux.HandleFunc("GET /feedback", dashboard.ServeList)
	mux.HandleFunc("GET /feedback/stats", dashboard.ServeStats)
	mux.HandleFunc("PATCH /feedback/{id}", dashboard.ServeStatus)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		// Check Redis
		if err := publisher.Ping(r.Context()); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}
		// Check Postgres
		if err := st.Ping(r.Context()); err != nil {
			http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // the transformer waits on the rewrite call
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel() // Stop forwarding workers
		worker.Wait()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		rdb.Close()
		pgPool.Close()
	}()

	slog.Info("pipeline service listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("pipeline service stopped")
}
