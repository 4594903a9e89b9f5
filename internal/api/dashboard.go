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

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
)

// Dashboard registers the informational endpoints: health and the locales
// a prompt can be rendered in.
func Dashboard(r *gin.RouterGroup, defaultLocale string) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/locales", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"locales": fusion.SupportedLocales(),
			"default": defaultLocale,
		})
	})
}
