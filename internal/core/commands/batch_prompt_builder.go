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
	goctx "context"
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// PromptResult is the outcome for one document of a batch.
type PromptResult struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt,omitempty"`
	Error  string `json:"error,omitempty"`
	Err    error  `json:"-"`
}

// BatchPromptBuilder renders a batch of raw analysis documents
// ([]json.RawMessage) concurrently on a fixed pool of workers. Each
// document is independent; one malformed document fails only its own
// result. Results are output in input order.
type BatchPromptBuilder struct {
	cor.BaseCommand
	options         fusion.Options
	numberOfWorkers int
}

func NewBatchPromptBuilder(name string, options fusion.Options, numberOfWorkers int) *BatchPromptBuilder {
	if numberOfWorkers <= 0 {
		numberOfWorkers = 1
	}
	return &BatchPromptBuilder{
		BaseCommand:     *cor.NewBaseCommand(name),
		options:         options,
		numberOfWorkers: numberOfWorkers,
	}
}

func (s *BatchPromptBuilder) Execute(context cor.Context) {
	documents, ok := context.Get(s.GetInputParam()).([]json.RawMessage)
	if !ok {
		s.Fail(context, fmt.Errorf("%w: expected a list of documents", model.ErrMalformedInput))
		return
	}

	opts := s.options
	if requested := stringParam(context, StrategyParam); requested != "" {
		opts.Strategy = requested
	}
	if _, err := fusion.NewStrategy(opts); err != nil {
		s.Fail(context, err)
		return
	}
	locale := stringParam(context, LocaleParam)

	var wg sync.WaitGroup
	jobs := make(chan *promptJob, len(documents))
	results := make(chan *PromptResult, len(documents))

	for w := 1; w <= s.numberOfWorkers; w++ {
		wg.Add(1)
		go promptWorker(jobs, results, &wg)
	}
	for i, doc := range documents {
		jobs <- newPromptJob(context.GetContext(), s.Tracer, s.GetName(), i, doc, locale, opts)
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]*PromptResult, len(documents))
	failed := 0
	for r := range results {
		out[r.Index] = r
		if r.Err != nil {
			failed++
		}
	}
	s.GetSuccessCounter().Add(context.GetContext(), int64(len(documents)-failed))
	s.GetErrorCounter().Add(context.GetContext(), int64(failed))
	context.Add(s.GetOutputParam(), out)
}

type promptJob struct {
	index  int
	ctx    goctx.Context
	span   trace.Span
	raw    json.RawMessage
	locale string
	opts   fusion.Options
}

func (j *promptJob) Close(status codes.Code, description string) {
	j.span.SetStatus(status, description)
	j.span.End()
}

func newPromptJob(ctx goctx.Context, tracer trace.Tracer, commandName string, index int, raw json.RawMessage, locale string, opts fusion.Options) *promptJob {
	jobCtx, span := tracer.Start(ctx, fmt.Sprintf("%s_prompt_%d", commandName, index))
	span.SetAttributes(
		attribute.Int("sequence", index),
		attribute.String("strategy", opts.Strategy),
		attribute.Int("bytes", len(raw)),
	)
	return &promptJob{index: index, ctx: jobCtx, span: span, raw: raw, locale: locale, opts: opts}
}

func promptWorker(jobs <-chan *promptJob, results chan<- *PromptResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for j := range jobs {
		if err := j.ctx.Err(); err != nil {
			j.Close(codes.Error, "cancelled")
			results <- &PromptResult{Index: j.index, Error: err.Error(), Err: err}
			continue
		}
		doc, err := model.ParseAnalysisDocument(j.raw)
		if err == nil {
			var prompt string
			prompt, err = fusion.BuildPrompt(doc, j.locale, j.opts)
			if err == nil {
				j.Close(codes.Ok, "rendered prompt")
				results <- &PromptResult{Index: j.index, Prompt: prompt}
				continue
			}
		}
		j.span.RecordError(err)
		j.Close(codes.Error, "prompt build failed")
		results <- &PromptResult{Index: j.index, Error: err.Error(), Err: err}
	}
}
