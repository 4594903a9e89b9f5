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

// Package api exposes prompt building and call analysis over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/services"
)

// SignedURLExpiry is how long a prompt download link stays valid.
const SignedURLExpiry = 15 * time.Minute

// Options configures the router middleware.
type Options struct {
	ServiceName          string
	Production           bool
	BearerToken          string
	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	MaxBodyBytes         int64
	DefaultLocale        string
}

// Handlers holds the services behind the routes. Analyses may be nil when
// no agent model is configured; its routes are then not registered.
type Handlers struct {
	Prompts  *services.PromptService
	Analyses *services.AnalysisService
}

// NewRouter builds the gin engine with every route under /api/v1.
func NewRouter(h *Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(cors.Default())
	if opts.Production {
		r.Use(NewClientRateLimiter(opts.RateLimitWindow, opts.RateLimitMaxRequests).Middleware())
		r.Use(BearerAuth(opts.BearerToken))
	}
	r.Use(BodyLimit(opts.MaxBodyBytes))

	apiV1 := r.Group("/api/v1")
	{
		Dashboard(apiV1, opts.DefaultLocale)
		PromptRouter(apiV1, h.Prompts)
		if h.Analyses != nil {
			AnalysisRouter(apiV1, h.Analyses)
		}
	}
	return r
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case isBodyTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrMalformedInput),
		errors.Is(err, services.ErrInvalidOption),
		errors.Is(err, fusion.ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, cloud.ErrSchemaViolation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	msg := err.Error()
	if errors.Is(err, services.ErrBusy) {
		msg = services.ErrBusy.Error()
	}
	c.JSON(status, gin.H{"success": false, "msg": msg})
}

func readBody(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if len(raw) == 0 {
		writeError(c, model.ErrMalformedInput)
		return nil, false
	}
	return raw, true
}

func promptRequest(c *gin.Context) services.PromptRequest {
	return services.PromptRequest{Locale: c.Query("locale"), Strategy: c.Query("strategy")}
}

// PromptRouter registers POST /prompts and POST /prompts/batch.
func PromptRouter(r *gin.RouterGroup, svc *services.PromptService) {
	prompts := r.Group("/prompts")
	{
		prompts.POST("", func(c *gin.Context) {
			raw, ok := readBody(c)
			if !ok {
				return
			}
			prompt, err := svc.Build(c.Request.Context(), raw, promptRequest(c))
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "prompt": prompt})
		})

		prompts.POST("/batch", func(c *gin.Context) {
			raw, ok := readBody(c)
			if !ok {
				return
			}
			var docs []json.RawMessage
			if err := json.Unmarshal(raw, &docs); err != nil {
				writeError(c, errors.Join(model.ErrMalformedInput, err))
				return
			}
			results, err := svc.BuildBatch(c.Request.Context(), docs, promptRequest(c))
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
		})
	}
}

// AnalysisRouter registers the analysis endpoints.
func AnalysisRouter(r *gin.RouterGroup, svc *services.AnalysisService) {
	analyses := r.Group("/analyses")
	{
		analyses.POST("", func(c *gin.Context) {
			raw, ok := readBody(c)
			if !ok {
				return
			}
			req := services.AnalysisRequest{PromptRequest: promptRequest(c), Source: c.Query("source")}
			analysis, err := svc.Analyze(c.Request.Context(), raw, req)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, analysis)
		})

		analyses.GET("/:id", func(c *gin.Context) {
			analysis, err := svc.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, analysis)
		})

		analyses.GET("/:id/prompt", func(c *gin.Context) {
			url, err := svc.PromptURL(c.Request.Context(), c.Param("id"), SignedURLExpiry)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": url})
		})
	}
}
