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

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-call-analysis/internal/api"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/commands"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/services"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-call-analysis/internal/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fixture struct {
	router *gin.Engine
	store  *test.AnalysisRecorder
	locker *services.LocalLocker
}

func newFixture(t *testing.T, opts api.Options) *fixture {
	t.Helper()
	store := test.NewAnalysisRecorder()
	locker := &services.LocalLocker{}
	analysis, err := workflow.NewAnalysisWorkflow(test.GetConfig(), nil, test.AnswerWith(test.GetTestModelAnswer()), store)
	require.NoError(t, err)

	h := &api.Handlers{
		Prompts: &services.PromptService{Options: fusion.DefaultOptions(), NumberOfWorkers: 2},
		Analyses: &services.AnalysisService{
			Workflow:   analysis,
			Repository: store,
			Locker:     locker,
		},
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = fusion.DefaultLocale
	}
	return &fixture{router: api.NewRouter(h, opts), store: store, locker: locker}
}

func (f *fixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthAndLocales(t *testing.T) {
	f := newFixture(t, api.Options{})

	w := f.do(http.MethodGet, "/api/v1/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/v1/locales", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "en", body["default"])
	assert.Contains(t, body["locales"], "tr")
}

func TestBuildPrompt(t *testing.T) {
	f := newFixture(t, api.Options{})

	w := f.do(http.MethodPost, "/api/v1/prompts?locale=en", test.GetTestAnalysisDocument())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prompt, _ := decode(t, w)["prompt"].(string)
	assert.NotEmpty(t, prompt)
}

func TestBuildPromptErrors(t *testing.T) {
	f := newFixture(t, api.Options{})

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"empty body", "/api/v1/prompts", "", http.StatusBadRequest},
		{"malformed document", "/api/v1/prompts", `{"frames": []}`, http.StatusBadRequest},
		{"unknown strategy", "/api/v1/prompts?strategy=scene", test.GetTestAnalysisDocument(), http.StatusBadRequest},
		{"batch not an array", "/api/v1/prompts/batch", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Equal(t, false, decode(t, w)["success"])
		})
	}
}

func TestBuildPromptBatch(t *testing.T) {
	f := newFixture(t, api.Options{})
	doc := test.GetTestAnalysisDocument()

	w := f.do(http.MethodPost, "/api/v1/prompts/batch", "["+doc+`, {"frames": 1}, `+doc+"]")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Results []*commands.PromptResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Results, 3)
	for i, r := range body.Results {
		assert.Equal(t, i, r.Index)
	}
	assert.NotEmpty(t, body.Results[0].Prompt)
	assert.NotEmpty(t, body.Results[1].Error)
	assert.Equal(t, body.Results[0].Prompt, body.Results[2].Prompt)
}

func TestAnalyzeAndFetch(t *testing.T) {
	f := newFixture(t, api.Options{})

	w := f.do(http.MethodPost, "/api/v1/analyses?source=calls/call-0001.json", test.GetTestAnalysisDocument())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created model.CallAnalysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, model.NewCallAnalysis("calls/call-0001.json").Id, created.Id)
	assert.Equal(t, 1, f.store.Len())

	w = f.do(http.MethodGet, "/api/v1/analyses/"+created.Id, "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched model.CallAnalysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.Summary, fetched.Summary)

	w = f.do(http.MethodGet, "/api/v1/analyses/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Nothing was uploaded, so there is no prompt to link to.
	w = f.do(http.MethodGet, "/api/v1/analyses/"+created.Id+"/prompt", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeWhileBusy(t *testing.T) {
	f := newFixture(t, api.Options{})
	release, ok, err := f.locker.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	w := f.do(http.MethodPost, "/api/v1/analyses", test.GetTestAnalysisDocument())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decode(t, w)["msg"], "try again later")
}

func TestBodyLimit(t *testing.T) {
	f := newFixture(t, api.Options{MaxBodyBytes: 16})
	w := f.do(http.MethodPost, "/api/v1/prompts", test.GetTestAnalysisDocument())
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestProductionRequiresBearerToken(t *testing.T) {
	f := newFixture(t, api.Options{Production: true, BearerToken: "s3cret", RateLimitMaxRequests: 100})

	w := f.do(http.MethodGet, "/api/v1/healthz", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decode(t, w)["msg"])

	w = f.do(http.MethodGet, "/api/v1/healthz", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/v1/healthz", "", "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProductionRateLimit(t *testing.T) {
	f := newFixture(t, api.Options{
		Production:           true,
		BearerToken:          "s3cret",
		RateLimitWindow:      time.Hour,
		RateLimitMaxRequests: 2,
	})

	for i := 0; i < 2; i++ {
		w := f.do(http.MethodGet, "/api/v1/healthz", "", "Authorization", "Bearer s3cret")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := f.do(http.MethodGet, "/api/v1/healthz", "", "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, api.MsgTooManyRequests, decode(t, w)["msg"])
}

func TestClientRateLimiterRefills(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := api.NewClientRateLimiter(time.Minute, 1)
	limiter.Now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))

	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow("10.0.0.1"))
}
