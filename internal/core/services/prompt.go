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

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/commands"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/workflow"
)

// ErrInvalidOption is returned for a request naming an unknown strategy.
var ErrInvalidOption = errors.New("invalid option")

// PromptRequest selects how one prompt is rendered. Empty fields use the
// configured defaults.
type PromptRequest struct {
	Locale   string
	Strategy string
}

// PromptService renders analysis documents into prompts. Every call builds
// its own chain context, so the service is safe for concurrent use.
type PromptService struct {
	Options         fusion.Options
	Cache           PromptCache // Optional.
	NumberOfWorkers int
}

// resolve fills defaults and rejects unknown strategies.
func (s *PromptService) resolve(req PromptRequest) (PromptRequest, error) {
	if req.Strategy == "" {
		req.Strategy = s.Options.Strategy
	}
	opts := s.Options
	opts.Strategy = req.Strategy
	strategy, err := fusion.NewStrategy(opts)
	if err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	req.Strategy = strategy.Name()
	if req.Locale == "" {
		req.Locale = s.Options.DefaultLocale
	}
	req.Locale = fusion.LookupLocale(req.Locale).Code
	return req, nil
}

// CacheKey identifies a rendered prompt by document content and options.
func CacheKey(raw []byte, req PromptRequest) string {
	sum := sha256.Sum256(raw)
	return req.Strategy + ":" + req.Locale + ":" + hex.EncodeToString(sum[:])
}

// Build renders one raw analysis document.
func (s *PromptService) Build(ctx context.Context, raw []byte, req PromptRequest) (string, error) {
	req, err := s.resolve(req)
	if err != nil {
		return "", err
	}

	key := CacheKey(raw, req)
	if s.Cache != nil {
		if prompt, ok, err := s.Cache.Get(ctx, key); err != nil {
			slog.WarnContext(ctx, "prompt cache read failed", "error", err)
		} else if ok {
			return prompt, nil
		}
	}

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, raw)
	chainCtx.Add(commands.LocaleParam, req.Locale)
	chainCtx.Add(commands.StrategyParam, req.Strategy)

	workflow.NewPromptBuilderWorkflow(s.Options).Execute(chainCtx)
	if err := chainCtx.Err(); err != nil {
		return "", err
	}
	prompt, _ := chainCtx.Get(commands.PromptParam).(string)

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, prompt); err != nil {
			slog.WarnContext(ctx, "prompt cache write failed", "error", err)
		}
	}
	return prompt, nil
}

// BuildBatch renders several documents on the worker pool. A malformed
// document fails only its own result.
func (s *PromptService) BuildBatch(ctx context.Context, docs []json.RawMessage, req PromptRequest) ([]*commands.PromptResult, error) {
	req, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, docs)
	chainCtx.Add(commands.LocaleParam, req.Locale)
	chainCtx.Add(commands.StrategyParam, req.Strategy)

	commands.NewBatchPromptBuilder("batch-prompt-builder", s.Options, s.NumberOfWorkers).Execute(chainCtx)
	if err := chainCtx.Err(); err != nil {
		return nil, err
	}
	results, _ := chainCtx.Get(cor.CtxOut).([]*commands.PromptResult)
	return results, nil
}
