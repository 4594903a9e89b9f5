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

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PromptCache remembers rendered prompts by request key.
type PromptCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, prompt string) error
}

// RedisPromptCache stores prompts in Redis under Prefix+key for TTL.
type RedisPromptCache struct {
	Client redis.Cmdable
	Prefix string
	TTL    time.Duration
}

func (c *RedisPromptCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.Client.Get(ctx, c.Prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisPromptCache) Set(ctx context.Context, key string, prompt string) error {
	return c.Client.Set(ctx, c.Prefix+key, prompt, c.TTL).Err()
}

type memoryEntry struct {
	prompt  string
	expires time.Time
}

// MemoryPromptCache is the in-process cache used when no Redis server is
// configured. Expired entries are dropped on read.
type MemoryPromptCache struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryPromptCache(ttl time.Duration) *MemoryPromptCache {
	return &MemoryPromptCache{TTL: ttl, Now: time.Now, entries: make(map[string]memoryEntry)}
}

func (c *MemoryPromptCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if c.TTL > 0 && !c.Now().Before(e.expires) {
		delete(c.entries, key)
		return "", false, nil
	}
	return e.prompt, true, nil
}

func (c *MemoryPromptCache) Set(_ context.Context, key string, prompt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{prompt: prompt, expires: c.Now().Add(c.TTL)}
	return nil
}
