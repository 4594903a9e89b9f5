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

package workflow_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-call-analysis/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetentionSweepRemovesOldAnalyses(t *testing.T) {
	now := time.Date(2024, 10, 11, 12, 0, 0, 0, time.UTC)
	store := test.NewAnalysisRecorder()
	fresh := model.NewCallAnalysis("fresh")
	fresh.CreateDate = now.Add(-time.Hour)
	stale := model.NewCallAnalysis("stale")
	stale.CreateDate = now.Add(-72 * time.Hour)
	require.NoError(t, store.Save(ctx, fresh))
	require.NoError(t, store.Save(ctx, stale))

	sweep := workflow.NewRetentionWorkflow(config, nil, store)
	sweep.SetClock(func() time.Time { return now })

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	sweep.Execute(chainCtx)

	require.NoError(t, chainCtx.Err())
	result := chainCtx.Get(cor.CtxOut).(*workflow.RetentionResult)
	assert.Equal(t, int64(1), result.AnalysesDeleted)
	assert.Equal(t, now.Add(-48*time.Hour), result.Cutoff)
	assert.Equal(t, 1, store.Len())
	assert.Contains(t, store.Saved, fresh.Id)
}

func TestRetentionSweepReportsStoreErrors(t *testing.T) {
	store := test.NewAnalysisRecorder()
	store.PurgeErr = errors.New("permission denied")

	sweep := workflow.NewRetentionWorkflow(config, nil, store)
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	sweep.Execute(chainCtx)

	assert.ErrorContains(t, chainCtx.Err(), "permission denied")
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
}

func TestRetentionDefaults(t *testing.T) {
	c := *config
	c.Retention.Days = 0
	now := time.Now()
	sweep := workflow.NewRetentionWorkflow(&c, nil, nil)
	sweep.SetClock(func() time.Time { return now })

	assert.Equal(t, now.Add(-time.Duration(workflow.DefaultRetentionDays)*24*time.Hour), sweep.Cutoff())
}
