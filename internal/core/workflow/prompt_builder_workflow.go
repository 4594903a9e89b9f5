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

// Package workflow assembles commands into the chains the application runs:
// prompt building, call analysis and the retention sweep.
package workflow

import (
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/commands"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
)

// PromptBuilderWorkflow turns a raw analysis document (string or []byte
// under CtxIn) into the rendered prompt (under CtxOut and
// commands.PromptParam). Set commands.LocaleParam or commands.StrategyParam
// on the context to override the configured defaults for one run.
type PromptBuilderWorkflow struct {
	cor.BaseCommand
	options fusion.Options
	chain   cor.Chain
}

func (m *PromptBuilderWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

func (m *PromptBuilderWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())
	out.AddCommand(commands.NewAnalysisJsonToStruct("parse-analysis-document"))
	out.AddCommand(commands.NewFrameNormalizer("normalize-frames"))
	out.AddCommand(commands.NewTimelineFuser("fuse-timeline", m.options))
	out.AddCommand(commands.NewEventCompactor("compact-events", m.options))
	out.AddCommand(commands.NewBackgroundTextFilter("filter-background-text", m.options.BackgroundTextMaxRatio))
	out.AddCommand(commands.NewPromptRenderer("render-prompt", m.options))
	m.chain = out
}

func NewPromptBuilderWorkflow(options fusion.Options) *PromptBuilderWorkflow {
	out := &PromptBuilderWorkflow{
		BaseCommand: *cor.NewBaseCommand("prompt-builder-workflow"),
		options:     options,
	}
	out.initializeChain()
	return out
}
