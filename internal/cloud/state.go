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

package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"
)

// ServiceClients holds every client the application talks to. It is built
// once at startup and shared by the API handlers and the workflows.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	GenAIClient     *genai.Client
	BiqQueryClient  *bigquery.Client
	IAMClient       *credentials.IamCredentialsClient
	RedisClient     *redis.Client // Nil when [redis].addr is empty.
	PostgresPool    *pgxpool.Pool // Nil unless analysis_store is "postgres".
	PubSubListeners map[string]*PubSubListener
	AgentModels     map[string]TextGenerator
}

// Close releases every open client.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BiqQueryClient != nil {
		_ = c.BiqQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
	if c.PostgresPool != nil {
		c.PostgresPool.Close()
	}
}

// NewAgentModels builds one TextGenerator per configured agent model. Vertex
// models share gc; OpenAI-compatible models get their own HTTP client.
func NewAgentModels(config *Config, gc *genai.Client) (map[string]TextGenerator, error) {
	agentModels := make(map[string]TextGenerator)
	for amKey, values := range config.AgentModels {
		switch values.Provider {
		case "", ProviderVertex:
			if gc == nil {
				return nil, fmt.Errorf("agent model %s: vertex provider requires a genai client", amKey)
			}
			conf := NewGenerateContentConfig(values, CallAnalysisSchema)
			agentModels[amKey] = NewQuotaAwareModel(conf, values.Model, gc.Models, values.RateLimit)
		case ProviderOpenAI:
			agentModels[amKey] = NewOpenAICompatibleModel(values, JSONSchema(CallAnalysisSchema))
		default:
			return nil, fmt.Errorf("agent model %s: unknown provider %q", amKey, values.Provider)
		}
		slog.Debug("configured agent model", "key", amKey, "provider", values.Provider, "model", values.Model)
	}
	return agentModels, nil
}

// NewCloudServiceClients creates all clients described by config.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	slog.Info("creating genai client", "project", config.Application.GoogleProjectId, "location", config.Application.GoogleLocation)
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}

	ic, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("iam credentials client: %w", err)
	}

	var rc *redis.Client
	if config.Redis.Addr != "" {
		rc = redis.NewClient(&redis.Options{Addr: config.Redis.Addr})
		if err := rc.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", config.Redis.Addr, err)
		}
	}

	var pool *pgxpool.Pool
	if config.Application.AnalysisStore == StorePostgres {
		pool, err = pgxpool.New(ctx, config.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
	}

	// Commands are attached once the workflows are built.
	subscriptions := make(map[string]*PubSubListener)
	for subKey, values := range config.TopicSubscriptions {
		actual, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = actual
	}

	agentModels, err := NewAgentModels(config, gc)
	if err != nil {
		return nil, err
	}

	cloud = &ServiceClients{
		StorageClient:   sc,
		PubsubClient:    pc,
		GenAIClient:     gc,
		BiqQueryClient:  bc,
		IAMClient:       ic,
		RedisClient:     rc,
		PostgresPool:    pool,
		PubSubListeners: subscriptions,
		AgentModels:     agentModels,
	}
	return cloud, nil
}
