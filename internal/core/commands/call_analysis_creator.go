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
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// CallAnalysisCreator asks the language model to analyse a rendered prompt.
// The analysis template receives:
//   - PROMPT: the rendered timeline
//   - LOCALE: the locale code the answer should be written in
//   - LANGUAGE_NOTE: empty for English, otherwise an instruction to answer in that locale
//   - EXAMPLE_JSON: a filled-in example of the expected answer
//
// The output is the raw JSON answer.
type CallAnalysisCreator struct {
	cor.BaseCommand
	generator          cloud.TextGenerator
	template           *template.Template
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

func NewCallAnalysisCreator(name string, generator cloud.TextGenerator, template *template.Template) *CallAnalysisCreator {
	out := &CallAnalysisCreator{
		BaseCommand: *cor.NewBaseCommand(name),
		generator:   generator,
		template:    template,
	}
	out.inputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.llm.token.input", out.GetName()))
	out.outputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.llm.token.output", out.GetName()))
	out.retryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.llm.retry", out.GetName()))
	return out
}

func (t *CallAnalysisCreator) GenerateParams(context cor.Context, prompt string) map[string]any {
	params := make(map[string]any)
	params["PROMPT"] = prompt

	locale := stringParam(context, LocaleParam)
	if locale == "" {
		locale = fusion.DefaultLocale
	}
	params["LOCALE"] = locale
	params["LANGUAGE_NOTE"] = ""
	if locale != fusion.DefaultLocale {
		params["LANGUAGE_NOTE"] = fmt.Sprintf("Write every free-text value in the language with code %q. Keep enumerated values in English.", locale)
	}

	example, _ := json.Marshal(model.GetExampleAnalysis())
	params["EXAMPLE_JSON"] = string(example)
	return params
}

func (t *CallAnalysisCreator) Execute(context cor.Context) {
	prompt, ok := context.Get(t.GetInputParam()).(string)
	if !ok {
		t.Fail(context, fmt.Errorf("%w: expected a rendered prompt", model.ErrMalformedInput))
		return
	}

	var buffer bytes.Buffer
	if err := t.template.Execute(&buffer, t.GenerateParams(context, prompt)); err != nil {
		t.Fail(context, fmt.Errorf("failed to execute analysis template: %w", err))
		return
	}

	out, err := cloud.GenerateWithRetry(context.GetContext(), t.inputTokenCounter, t.outputTokenCounter, t.retryCounter, 0, t.generator, buffer.String())
	if err != nil {
		t.Fail(context, fmt.Errorf("analysis request failed: %w", err))
		return
	}
	t.Succeed(context, out)
}
