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

package cloud_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestLoadConfigOverlaysRuntimeFile(t *testing.T) {
	dir := t.TempDir()
	base := `
[application]
name = "call-analysis"
thread_pool_size = 4

[fusion]
strategy = "frame-grouped"
default_locale = "en"

[agent_models.analysis]
provider = "vertex"
model = "gemini-2.5-flash"
`
	override := `
[fusion]
strategy = "interval-grouped"
default_locale = "tr"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte(base), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.unit.toml"), []byte(override), 0o644))
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "unit")

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))

	assert.Equal(t, "call-analysis", config.Application.Name)
	assert.Equal(t, 4, config.Application.ThreadPoolSize)
	assert.Equal(t, "interval-grouped", config.Fusion.Strategy)
	assert.Equal(t, "gemini-2.5-flash", config.AgentModels["analysis"].Model)

	opts := config.Fusion.Options()
	assert.Equal(t, fusion.StrategyIntervalGrouped, opts.Strategy)
	assert.Equal(t, "tr", opts.DefaultLocale)
	assert.Equal(t, fusion.DefaultBackgroundTextMaxRatio, opts.BackgroundTextMaxRatio)
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte("[application\nname="), 0o644))
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "unit")

	assert.Error(t, cloud.LoadConfig(cloud.NewConfig()))
}

func TestFusionOptionsIgnoresUnknownLocale(t *testing.T) {
	opts := cloud.Fusion{DefaultLocale: "xx"}.Options()
	assert.Equal(t, fusion.DefaultLocale, opts.DefaultLocale)
	assert.Equal(t, fusion.StrategyFrameGrouped, opts.Strategy)
}

func TestPromptObjectName(t *testing.T) {
	assert.Equal(t, "calls/2024/abc.prompt.txt", cloud.PromptObjectName("calls/2024/abc.json"))
	assert.Equal(t, "abc.prompt.txt", cloud.PromptObjectName("abc"))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cloud.StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cloud.StripCodeFence(`{"a":1}`))
}

const validAnalysis = `{
  "summary": "Order was late.",
  "customer_intent": "Track a missing order",
  "agent_actions": ["Checked the courier status"],
  "sentiment": "negative",
  "resolution_status": "escalated",
  "topics": ["delivery"],
  "action_items": [{"owner": "agent", "description": "Call the courier"}]
}`

func TestValidateAgainstSchema(t *testing.T) {
	require.NoError(t, cloud.ValidateAgainstSchema([]byte(validAnalysis), cloud.CallAnalysisSchema))

	cases := map[string]string{
		"not json":           `{"summary":`,
		"missing property":   `{"summary": "x"}`,
		"bad enum":           `{"summary":"x","customer_intent":"y","agent_actions":[],"sentiment":"furious","resolution_status":"resolved","topics":[],"action_items":[]}`,
		"wrong array items":  `{"summary":"x","customer_intent":"y","agent_actions":[1],"sentiment":"neutral","resolution_status":"resolved","topics":[],"action_items":[]}`,
		"item missing owner": `{"summary":"x","customer_intent":"y","agent_actions":[],"sentiment":"neutral","resolution_status":"resolved","topics":[],"action_items":[{"description":"d"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			err := cloud.ValidateAgainstSchema([]byte(body), cloud.CallAnalysisSchema)
			assert.ErrorIs(t, err, cloud.ErrSchemaViolation)
		})
	}
}

func TestJSONSchemaConversion(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal(cloud.JSONSchema(cloud.CallAnalysisSchema), &doc))

	assert.Equal(t, "object", doc["type"])
	props := doc["properties"].(map[string]any)
	sentiment := props["sentiment"].(map[string]any)
	assert.Equal(t, "string", sentiment["type"])
	assert.Len(t, sentiment["enum"], len(cloud.Sentiments))
	items := props["action_items"].(map[string]any)["items"].(map[string]any)
	assert.Equal(t, "object", items["type"])
}

func TestOpenAICompatibleModel(t *testing.T) {
	var request map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "llama3",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": validAnalysis},
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 34, "total_tokens": 46},
		})
	}))
	defer server.Close()
	t.Setenv("TEST_OPENAI_KEY", "secret")

	model := cloud.NewOpenAICompatibleModel(cloud.AgentModel{
		Provider:           cloud.ProviderOpenAI,
		Model:              "llama3",
		BaseURL:            server.URL + "/v1",
		APIKeyEnv:          "TEST_OPENAI_KEY",
		SystemInstructions: "You analyse calls.",
		RateLimit:          5,
	}, cloud.JSONSchema(cloud.CallAnalysisSchema))

	out, err := model.GenerateText(context.Background(), "At second 1, Audio transcription: hi.")
	require.NoError(t, err)
	assert.JSONEq(t, validAnalysis, out.Text)
	assert.Equal(t, int64(12), out.InputTokens)
	assert.Equal(t, int64(34), out.OutputTokens)

	assert.Equal(t, "llama3", request["model"])
	messages := request["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	format := request["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
}

type flakyGenerator struct {
	failures int
	calls    int
}

func (f *flakyGenerator) GenerateText(_ context.Context, _ string) (*cloud.Generation, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("unavailable")
	}
	return &cloud.Generation{Text: "```json\n{}\n```", InputTokens: 1, OutputTokens: 1}, nil
}

func TestGenerateWithRetry(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	in, _ := meter.Int64Counter("in")
	out, _ := meter.Int64Counter("out")
	retries, _ := meter.Int64Counter("retries")

	recovering := &flakyGenerator{failures: 2}
	text, err := cloud.GenerateWithRetry(context.Background(), in, out, retries, 0, recovering, "p")
	require.NoError(t, err)
	assert.Equal(t, "{}", text)
	assert.Equal(t, 3, recovering.calls)

	broken := &flakyGenerator{failures: 100}
	_, err = cloud.GenerateWithRetry(context.Background(), in, out, retries, 0, broken, "p")
	assert.Error(t, err)
	assert.Equal(t, cloud.MaxRetries+1, broken.calls)
}
