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
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// MsgTooManyRequests is the body message of a rate-limited response.
const MsgTooManyRequests = "Too many requests sent, please try again later."

func abortWithMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "msg": msg})
}

// BearerAuth rejects requests whose Authorization header is not
// "Bearer <token>". An empty token rejects everything.
func BearerAuth(token string) gin.HandlerFunc {
	want := []byte("Bearer " + token)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader("Authorization"))
		if token == "" || subtle.ConstantTimeCompare(got, want) != 1 {
			abortWithMessage(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter hands out one token bucket per client IP. A bucket
// allows maxRequests per window and refills continuously.
type ClientRateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	window      time.Duration
	maxRequests int
	lastPrune   time.Time
	Now         func() time.Time
}

func NewClientRateLimiter(window time.Duration, maxRequests int) *ClientRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if maxRequests <= 0 {
		maxRequests = 60
	}
	return &ClientRateLimiter{
		visitors:    make(map[string]*visitor),
		window:      window,
		maxRequests: maxRequests,
		Now:         time.Now,
	}
}

// Allow reports whether the client at ip may make another request now.
func (l *ClientRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.Now()
	if now.Sub(l.lastPrune) > l.window {
		// Idle buckets are full again, so dropping them changes nothing.
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.window {
				delete(l.visitors, k)
			}
		}
		l.lastPrune = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.maxRequests)), l.maxRequests)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			abortWithMessage(c, http.StatusTooManyRequests, MsgTooManyRequests)
			return
		}
		c.Next()
	}
}

// BodyLimit caps request bodies at maxBytes.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
