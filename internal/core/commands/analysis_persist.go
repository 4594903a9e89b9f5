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

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// AnalysisWriter stores a finished analysis.
type AnalysisWriter interface {
	Save(ctx context.Context, analysis *model.CallAnalysis) error
}

// AnalysisPersist saves the analysis under AnalysisParam and outputs it.
type AnalysisPersist struct {
	cor.BaseCommand
	writer AnalysisWriter
}

func NewAnalysisPersist(name string, writer AnalysisWriter) *AnalysisPersist {
	return &AnalysisPersist{BaseCommand: *cor.NewBaseCommand(name), writer: writer}
}

func (s *AnalysisPersist) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(AnalysisParam) != nil
}

func (s *AnalysisPersist) Execute(context cor.Context) {
	analysis := context.Get(AnalysisParam).(*model.CallAnalysis)

	if err := s.writer.Save(context.GetContext(), analysis); err != nil {
		s.Fail(context, fmt.Errorf("failed to persist analysis %s: %w", analysis.Id, err))
		return
	}
	slog.InfoContext(context.GetContext(), "persisted analysis", "id", analysis.Id, "sentiment", analysis.Sentiment)
	s.Succeed(context, analysis)
}
