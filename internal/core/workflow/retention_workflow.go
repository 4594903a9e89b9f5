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

package workflow

import (
	goctx "context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
)

// Retention defaults.
const (
	DefaultRetentionDays        = 2
	DefaultSweepIntervalMinutes = 60
)

// AnalysisPurger removes stored analyses created before the cutoff and
// reports how many were removed.
type AnalysisPurger interface {
	DeleteOlderThan(ctx goctx.Context, cutoff time.Time) (int64, error)
}

// RetentionWorkflow deletes rendered prompts and stored analyses once they
// are older than the retention period. It runs on its own ticker; see
// StartTimer.
type RetentionWorkflow struct {
	cor.BaseCommand
	storageClient *storage.Client
	promptBucket  string
	purger        AnalysisPurger
	retention     time.Duration
	interval      time.Duration
	now           func() time.Time
}

// NewRetentionWorkflow builds the sweep. A nil storage client or purger
// disables that half of the sweep.
func NewRetentionWorkflow(config *cloud.Config, storageClient *storage.Client, purger AnalysisPurger) *RetentionWorkflow {
	days := config.Retention.Days
	if days <= 0 {
		days = DefaultRetentionDays
	}
	minutes := config.Retention.SweepIntervalMinutes
	if minutes <= 0 {
		minutes = DefaultSweepIntervalMinutes
	}
	return &RetentionWorkflow{
		BaseCommand:   *cor.NewBaseCommand("retention-workflow"),
		storageClient: storageClient,
		promptBucket:  config.Storage.PromptOutputBucket,
		purger:        purger,
		retention:     time.Duration(days) * 24 * time.Hour,
		interval:      time.Duration(minutes) * time.Minute,
		now:           time.Now,
	}
}

// SetClock replaces the clock used to compute the cutoff.
func (m *RetentionWorkflow) SetClock(now func() time.Time) {
	m.now = now
}

// Cutoff is the creation time before which data is removed.
func (m *RetentionWorkflow) Cutoff() time.Time {
	return m.now().Add(-m.retention)
}

// StartTimer runs the sweep every interval until ctx is cancelled.
func (m *RetentionWorkflow) StartTimer(ctx goctx.Context) {
	tracer := otel.Tracer("retention-sweep")
	ticker := time.NewTicker(m.interval)

	go func(m *RetentionWorkflow) {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				traceCtx, span := tracer.Start(ctx, "retention-sweep")
				chainCtx := cor.NewBaseContext()
				chainCtx.SetContext(traceCtx)

				m.Execute(chainCtx)

				if chainCtx.HasErrors() {
					span.RecordError(chainCtx.Err())
					span.SetStatus(codes.Error, "failed to execute retention sweep")
				} else {
					span.SetStatus(codes.Ok, "executed retention sweep")
				}
				chainCtx.Close()
				span.End()
			case <-ctx.Done():
				return
			}
		}
	}(m)
}

func (m *RetentionWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute runs one sweep. The number of deleted prompts and analyses is
// left under CtxOut as a RetentionResult.
func (m *RetentionWorkflow) Execute(context cor.Context) {
	cutoff := m.Cutoff()
	result := &RetentionResult{Cutoff: cutoff}

	if m.storageClient != nil && m.promptBucket != "" {
		deleted, err := m.sweepPrompts(context.GetContext(), cutoff)
		result.PromptsDeleted = deleted
		if err != nil {
			m.Fail(context, fmt.Errorf("prompt sweep: %w", err))
		}
	}
	if m.purger != nil {
		deleted, err := m.purger.DeleteOlderThan(context.GetContext(), cutoff)
		result.AnalysesDeleted = deleted
		if err != nil {
			context.AddError(m.GetName()+"-analyses", fmt.Errorf("analysis sweep: %w", err))
			m.GetErrorCounter().Add(context.GetContext(), 1)
		}
	}

	slog.InfoContext(context.GetContext(), "retention sweep finished",
		"cutoff", cutoff, "prompts", result.PromptsDeleted, "analyses", result.AnalysesDeleted)
	if !context.HasErrors() {
		m.Succeed(context, result)
	}
}

// RetentionResult summarises one sweep.
type RetentionResult struct {
	Cutoff          time.Time
	PromptsDeleted  int64
	AnalysesDeleted int64
}

func (m *RetentionWorkflow) sweepPrompts(ctx goctx.Context, cutoff time.Time) (int64, error) {
	bucket := m.storageClient.Bucket(m.promptBucket)
	it := bucket.Objects(ctx, &storage.Query{})
	var deleted int64
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return deleted, nil
		}
		if err != nil {
			return deleted, err
		}
		if !attrs.Created.Before(cutoff) {
			continue
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return deleted, fmt.Errorf("delete gs://%s/%s: %w", m.promptBucket, attrs.Name, err)
		}
		deleted++
	}
}
