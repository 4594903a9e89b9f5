// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main runs the call analysis server: the HTTP API, the Pub/Sub
// listener for uploaded analysis documents and the retention sweep.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jaycherian/gcp-go-call-analysis/internal/api"
	"github.com/jaycherian/gcp-go-call-analysis/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to read .env: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config, err := GetConfig()
	if err != nil {
		log.Fatal(err)
	}

	closeLog, err := telemetry.SetupLogging(config.Application.LogFile)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = closeLog() }()
	slog.Info("Logging initialized")

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		os.Exit(1)
	}
	slog.Info("Tracing initialized", "exporter", config.Application.TelemetryExporter)

	if err := InitState(ctx); err != nil {
		slog.Error("Failed to initialize state", "error", err)
		os.Exit(1)
	}
	defer state.cloud.Close()
	slog.Info("Initialized State")

	if config.Server.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(&api.Handlers{Prompts: state.prompts, Analyses: state.analyses}, api.Options{
		ServiceName:          config.Application.Name,
		Production:           config.Server.Production,
		BearerToken:          config.Server.BearerToken,
		RateLimitWindow:      time.Duration(config.Server.RateLimitWindowSeconds) * time.Second,
		RateLimitMaxRequests: config.Server.RateLimitMaxRequests,
		MaxBodyBytes:         config.Server.MaxBodyBytes,
		DefaultLocale:        state.prompts.Options.DefaultLocale,
	})

	port := config.Server.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 5 * time.Minute, // Synchronous analyses wait on the model.
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
			cancel()
		}
	}()
	slog.Info("Server ready", "port", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	cancel()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown failed", "error", err)
	}
	slog.Info("Server exiting")
}
