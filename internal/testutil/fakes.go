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

package test

import (
	"context"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/services"
	"github.com/stretchr/testify/mock"
)

// MockTextGenerator is a testify mock for cloud.TextGenerator.
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) GenerateText(ctx context.Context, prompt string) (*cloud.Generation, error) {
	args := m.Called(ctx, prompt)
	if g, ok := args.Get(0).(*cloud.Generation); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

// AnswerWith returns a generator that always answers text.
func AnswerWith(text string) *MockTextGenerator {
	g := &MockTextGenerator{}
	g.On("GenerateText", mock.Anything, mock.Anything).
		Return(&cloud.Generation{Text: text, InputTokens: 100, OutputTokens: 50}, nil)
	return g
}

// AnalysisRecorder keeps analyses in memory. It satisfies the writer and
// purger interfaces used by the workflows.
type AnalysisRecorder struct {
	mu       sync.Mutex
	Saved    map[string]*model.CallAnalysis
	SaveErr  error
	PurgeErr error
}

func NewAnalysisRecorder() *AnalysisRecorder {
	return &AnalysisRecorder{Saved: make(map[string]*model.CallAnalysis)}
}

func (r *AnalysisRecorder) Save(_ context.Context, analysis *model.CallAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.Saved[analysis.Id] = analysis
	return nil
}

func (r *AnalysisRecorder) Get(_ context.Context, id string) (*model.CallAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.Saved[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return a, nil
}

func (r *AnalysisRecorder) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.PurgeErr != nil {
		return 0, r.PurgeErr
	}
	var deleted int64
	for id, a := range r.Saved {
		if a.CreateDate.Before(cutoff) {
			delete(r.Saved, id)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored analyses.
func (r *AnalysisRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Saved)
}
