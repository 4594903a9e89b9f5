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
	"encoding/json"
	"fmt"

	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// CallAnalysisJsonToStruct validates the model's answer against
// cloud.CallAnalysisSchema and decodes it into a model.CallAnalysis. Run
// details (source, locale, strategy, prompt and its URL) are copied from
// the chain context. The analysis is stored under AnalysisParam and output.
type CallAnalysisJsonToStruct struct {
	cor.BaseCommand
}

func NewCallAnalysisJsonToStruct(name string) *CallAnalysisJsonToStruct {
	return &CallAnalysisJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
}

func (s *CallAnalysisJsonToStruct) Execute(context cor.Context) {
	in, ok := context.Get(s.GetInputParam()).(string)
	if !ok {
		s.Fail(context, fmt.Errorf("%w: expected the model answer", cloud.ErrSchemaViolation))
		return
	}
	if err := cloud.ValidateAgainstSchema([]byte(in), cloud.CallAnalysisSchema); err != nil {
		s.Fail(context, err)
		return
	}

	source := stringParam(context, SourceParam)
	if source == "" {
		source = stringParam(context, PromptParam)
	}
	doc := model.NewCallAnalysis(source)
	if err := json.Unmarshal([]byte(in), doc); err != nil {
		s.Fail(context, fmt.Errorf("failed to unmarshal call analysis: %w", err))
		return
	}

	if obj, ok := context.Get(cloud.GCSObjectParam).(*cloud.GCSObject); ok && obj != nil {
		doc.SourceUrl = fmt.Sprintf("https://storage.mtls.cloud.google.com/%s/%s", obj.Bucket, obj.Name)
	}
	doc.PromptUrl = stringParam(context, PromptUrlParam)
	doc.Locale = stringParam(context, LocaleParam)
	doc.Strategy = stringParam(context, StrategyParam)
	doc.Prompt = stringParam(context, PromptParam)

	context.Add(AnalysisParam, doc)
	s.Succeed(context, doc)
}
