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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/services"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/workflow"
)

// EnvBearerToken overrides [server].bearer_token.
const EnvBearerToken = "BEARER_TOKEN"

// StateManager holds the shared dependencies of the server.
type StateManager struct {
	config    *cloud.Config
	cloud     *cloud.ServiceClients
	prompts   *services.PromptService
	analyses  *services.AnalysisService
	retention *workflow.RetentionWorkflow
}

var state = &StateManager{}

// SetupOS points the config loader at ./configs and defaults the runtime to
// "local". Values already present in the environment (for example from a
// .env file) win.
func SetupOS() error {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		return os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return nil
}

// GetConfig loads the configuration once.
func GetConfig() (*cloud.Config, error) {
	if state.config != nil {
		return state.config, nil
	}
	if err := SetupOS(); err != nil {
		return nil, fmt.Errorf("failed to setup os: %w", err)
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	if token := os.Getenv(EnvBearerToken); token != "" {
		config.Server.BearerToken = token
	}
	if config.Server.Production && config.Server.BearerToken == "" {
		return nil, errors.New("BEARER_TOKEN must be set in production")
	}
	state.config = config
	return config, nil
}

func newRepository(ctx context.Context, config *cloud.Config, clients *cloud.ServiceClients) (services.AnalysisRepository, error) {
	switch config.Application.AnalysisStore {
	case cloud.StorePostgres:
		repo := &services.PostgresAnalysisRepository{Pool: clients.PostgresPool}
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	case "", cloud.StoreBigQuery:
		return &services.BigQueryAnalysisRepository{
			BigqueryClient: clients.BiqQueryClient,
			DatasetName:    config.BigQueryDataSource.DatasetName,
			AnalysisTable:  config.BigQueryDataSource.AnalysisTable,
		}, nil
	default:
		return nil, fmt.Errorf("unknown analysis store %q", config.Application.AnalysisStore)
	}
}

// newLocker and newCache use Redis when it is configured so every instance
// shares the busy lock and the prompt cache.
func newLocker(config *cloud.Config, clients *cloud.ServiceClients) services.Locker {
	if clients.RedisClient == nil {
		return &services.LocalLocker{}
	}
	return &services.RedisLocker{
		Client: clients.RedisClient,
		Key:    config.Redis.LockKey,
		TTL:    time.Duration(config.Redis.LockTTLSeconds) * time.Second,
	}
}

func newCache(config *cloud.Config, clients *cloud.ServiceClients) services.PromptCache {
	ttl := time.Duration(config.Redis.CacheTTLSeconds) * time.Second
	if clients.RedisClient == nil {
		return services.NewMemoryPromptCache(ttl)
	}
	return &services.RedisPromptCache{Client: clients.RedisClient, Prefix: config.Redis.PromptCachePrefix, TTL: ttl}
}

// InitState creates the clients, services and background workflows.
func InitState(ctx context.Context) error {
	config, err := GetConfig()
	if err != nil {
		return err
	}

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	repo, err := newRepository(ctx, config, cloudClients)
	if err != nil {
		return err
	}

	state.prompts = &services.PromptService{
		Options:         config.Fusion.Options(),
		Cache:           newCache(config, cloudClients),
		NumberOfWorkers: config.Application.ThreadPoolSize,
	}

	if generator, ok := cloudClients.AgentModels[config.Application.AgentModel]; ok {
		analysis, err := workflow.NewAnalysisWorkflow(config, cloudClients.StorageClient, generator, repo)
		if err != nil {
			return err
		}
		state.analyses = &services.AnalysisService{
			Workflow:      analysis,
			Repository:    repo,
			Locker:        newLocker(config, cloudClients),
			StorageClient: cloudClients.StorageClient,
			IAMClient:     cloudClients.IAMClient,
			SignerEmail:   config.Application.SignerServiceAccountEmail,
		}
	} else {
		slog.Warn("no agent model configured, analysis endpoints are disabled", "agent_model", config.Application.AgentModel)
	}

	state.retention = workflow.NewRetentionWorkflow(config, cloudClients.StorageClient, repo)
	state.retention.StartTimer(ctx)

	return SetupListeners(ctx, config, cloudClients, repo)
}
