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

// Package cloud holds the application's configuration and its clients for
// Google Cloud and the language-model backends.
//
// This file defines the configuration structs, decoded from TOML by
// LoadConfig:
//   - Application: project, location, worker pool size, logging and telemetry.
//   - Server: HTTP port, bearer token and rate limits.
//   - Storage: where analysis documents arrive and where prompts are written.
//   - BigQueryDataSource / Postgres: the analysis store.
//   - Redis: the cross-instance processing lock and prompt cache.
//   - PromptTemplates: the analysis instruction template.
//   - Fusion: strategy and thresholds for prompt building.
//   - Retention: how long prompts and analyses are kept.
//   - TopicSubscriptions / AgentModels: Pub/Sub and LLM wiring.
package cloud

import (
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
	"google.golang.org/genai"
)

// DefaultSafetySettings leaves Gemini's content filters off. Call recordings
// routinely contain complaints and heated language that would otherwise be
// blocked.
var DefaultSafetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
}

// Model providers accepted in [agent_models.*].provider.
const (
	ProviderVertex = "vertex"
	ProviderOpenAI = "openai"
)

// Analysis store backends accepted in [application].analysis_store.
const (
	StoreBigQuery = "bigquery"
	StorePostgres = "postgres"
)

// BigQueryDataSource names the dataset and table holding analyses.
type BigQueryDataSource struct {
	DatasetName   string `toml:"dataset"`
	AnalysisTable string `toml:"analysis_table"`
}

// Postgres configures the alternative analysis store.
type Postgres struct {
	URL string `toml:"url"`
}

// Redis configures the shared processing lock and the prompt cache. An empty
// address keeps both in-process.
type Redis struct {
	Addr              string `toml:"addr"`
	LockKey           string `toml:"lock_key"`
	LockTTLSeconds    int    `toml:"lock_ttl_seconds"`
	CacheTTLSeconds   int    `toml:"cache_ttl_seconds"`
	PromptCachePrefix string `toml:"prompt_cache_prefix"`
}

// PromptTemplates holds the Go templates sent to the language model.
type PromptTemplates struct {
	AnalysisPrompt string `toml:"analysis"` // Receives PROMPT, LOCALE and EXAMPLE_JSON.
}

// AgentModel configures one language model.
type AgentModel struct {
	Provider           string  `toml:"provider"` // "vertex" (default) or "openai".
	Model              string  `toml:"model"`
	BaseURL            string  `toml:"base_url"`    // OpenAI-compatible endpoint, e.g. an Ollama server.
	APIKeyEnv          string  `toml:"api_key_env"` // Environment variable holding the API key.
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"`
	RateLimit          int     `toml:"rate_limit"` // Requests per second.
}

// TopicSubscription configures one Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Storage names the GCS buckets.
type Storage struct {
	AnalysisInputBucket string `toml:"analysis_input_bucket"`
	PromptOutputBucket  string `toml:"prompt_output_bucket"`
}

// Server configures the HTTP API.
type Server struct {
	Port                   int    `toml:"port"`
	Production             bool   `toml:"production"`
	BearerToken            string `toml:"bearer_token"`
	RateLimitWindowSeconds int    `toml:"rate_limit_window_seconds"`
	RateLimitMaxRequests   int    `toml:"rate_limit_max_requests"`
	MaxBodyBytes           int64  `toml:"max_body_bytes"`
}

// Fusion configures prompt building.
type Fusion struct {
	Strategy               string  `toml:"strategy"`
	SeparateDetections     bool    `toml:"separate_detections"`
	BackgroundTextMaxRatio float64 `toml:"background_text_max_ratio"`
	ConsumedIntervalMode   string  `toml:"consumed_interval_mode"`
	DefaultLocale          string  `toml:"default_locale"`
}

// Options converts the section into pipeline options, filling defaults.
func (f Fusion) Options() fusion.Options {
	opts := fusion.DefaultOptions()
	if f.Strategy != "" {
		opts.Strategy = f.Strategy
	}
	opts.SeparateDetections = f.SeparateDetections
	if f.BackgroundTextMaxRatio > 0 {
		opts.BackgroundTextMaxRatio = f.BackgroundTextMaxRatio
	}
	if f.ConsumedIntervalMode != "" {
		opts.ConsumedIntervalMode = fusion.ConsumedIntervalMode(f.ConsumedIntervalMode)
	}
	if fusion.IsSupportedLocale(f.DefaultLocale) {
		opts.DefaultLocale = f.DefaultLocale
	}
	return opts
}

// Retention configures the sweep of old prompts and analyses.
type Retention struct {
	Days                 int `toml:"days"`
	SweepIntervalMinutes int `toml:"sweep_interval_minutes"`
}

// Config is the top-level configuration.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		ThreadPoolSize            int    `toml:"thread_pool_size"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
		LogFile                   string `toml:"log_file"`
		TelemetryExporter         string `toml:"telemetry_exporter"` // "gcp" or "none".
		AnalysisStore             string `toml:"analysis_store"`     // "bigquery" or "postgres".
		AgentModel                string `toml:"agent_model"`        // Key into AgentModels.
	} `toml:"application"`
	Server             Server                       `toml:"server"`
	Storage            Storage                      `toml:"storage"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	Postgres           Postgres                     `toml:"postgres"`
	Redis              Redis                        `toml:"redis"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	Fusion             Fusion                       `toml:"fusion"`
	Retention          Retention                    `toml:"retention"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	AgentModels        map[string]AgentModel        `toml:"agent_models"`
}

// NewConfig returns a Config with its maps initialized.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]AgentModel),
	}
}
