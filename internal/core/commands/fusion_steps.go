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
	"fmt"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// AnalysisJsonToStruct parses the raw analysis document. The input may be a
// string or a byte slice.
type AnalysisJsonToStruct struct {
	cor.BaseCommand
}

func NewAnalysisJsonToStruct(name string) *AnalysisJsonToStruct {
	return &AnalysisJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *AnalysisJsonToStruct) Execute(context cor.Context) {
	var data []byte
	switch in := context.Get(c.GetInputParam()).(type) {
	case []byte:
		data = in
	case string:
		data = []byte(in)
	default:
		c.Fail(context, fmt.Errorf("%w: unsupported input %T", model.ErrMalformedInput, in))
		return
	}

	doc, err := model.ParseAnalysisDocument(data)
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(DocumentParam, doc)
	c.Succeed(context, doc)
}

// FrameNormalizer converts the parsed document into ordered sets.
type FrameNormalizer struct {
	cor.BaseCommand
}

func NewFrameNormalizer(name string) *FrameNormalizer {
	return &FrameNormalizer{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *FrameNormalizer) Execute(context cor.Context) {
	doc, ok := context.Get(c.GetInputParam()).(*model.AnalysisDocument)
	if !ok {
		c.Fail(context, fmt.Errorf("%w: expected a parsed document", model.ErrMalformedInput))
		return
	}
	c.Succeed(context, fusion.NormalizeDocument(doc))
}

// TimelineFuser selects the fusion strategy and fuses the normalized
// document into a timeline. A strategy name under StrategyParam overrides
// the configured one for this run.
type TimelineFuser struct {
	cor.BaseCommand
	options fusion.Options
}

func NewTimelineFuser(name string, options fusion.Options) *TimelineFuser {
	return &TimelineFuser{BaseCommand: *cor.NewBaseCommand(name), options: options}
}

func (c *TimelineFuser) Execute(context cor.Context) {
	doc, ok := context.Get(c.GetInputParam()).(*model.NormalizedDocument)
	if !ok {
		c.Fail(context, fmt.Errorf("%w: expected a normalized document", model.ErrMalformedInput))
		return
	}
	opts := c.options
	if requested := stringParam(context, StrategyParam); requested != "" {
		opts.Strategy = requested
	}
	strategy, err := fusion.NewStrategy(opts)
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(strategyImplParam, strategy)
	context.Add(StrategyParam, strategy.Name())

	timeline := strategy.Fuse(doc)
	c.Succeed(context, &timeline)
}

// strategyFrom returns the strategy chosen by TimelineFuser, or the
// configured default when the chain did not run one.
func strategyFrom(context cor.Context, options fusion.Options) (fusion.Strategy, error) {
	if s, ok := context.Get(strategyImplParam).(fusion.Strategy); ok {
		return s, nil
	}
	return fusion.NewStrategy(options)
}

// EventCompactor applies the strategy's compaction rules.
type EventCompactor struct {
	cor.BaseCommand
	options fusion.Options
}

func NewEventCompactor(name string, options fusion.Options) *EventCompactor {
	return &EventCompactor{BaseCommand: *cor.NewBaseCommand(name), options: options}
}

func (c *EventCompactor) Execute(context cor.Context) {
	timeline, ok := context.Get(c.GetInputParam()).(*model.Timeline)
	if !ok {
		c.Fail(context, fmt.Errorf("%w: expected a timeline", model.ErrMalformedInput))
		return
	}
	strategy, err := strategyFrom(context, c.options)
	if err != nil {
		c.Fail(context, err)
		return
	}
	compacted := strategy.Compact(*timeline)
	c.Succeed(context, &compacted)
}

// BackgroundTextFilter blanks on-screen text that stays visible for most
// of the call.
type BackgroundTextFilter struct {
	cor.BaseCommand
	filter *fusion.BackgroundTextFilter
}

func NewBackgroundTextFilter(name string, maxRatio float64) *BackgroundTextFilter {
	return &BackgroundTextFilter{BaseCommand: *cor.NewBaseCommand(name), filter: fusion.NewBackgroundTextFilter(maxRatio)}
}

func (c *BackgroundTextFilter) Execute(context cor.Context) {
	timeline, ok := context.Get(c.GetInputParam()).(*model.Timeline)
	if !ok {
		c.Fail(context, fmt.Errorf("%w: expected a timeline", model.ErrMalformedInput))
		return
	}
	out := model.Timeline{Events: c.filter.Filter(timeline.Events), DetectionSummary: timeline.DetectionSummary}
	c.Succeed(context, &out)
}

// PromptRenderer renders the timeline in the locale under LocaleParam,
// falling back to the configured default. The prompt is also stored under
// PromptParam.
type PromptRenderer struct {
	cor.BaseCommand
	options fusion.Options
}

func NewPromptRenderer(name string, options fusion.Options) *PromptRenderer {
	return &PromptRenderer{BaseCommand: *cor.NewBaseCommand(name), options: options}
}

func (c *PromptRenderer) Execute(context cor.Context) {
	timeline, ok := context.Get(c.GetInputParam()).(*model.Timeline)
	if !ok {
		c.Fail(context, fmt.Errorf("%w: expected a timeline", model.ErrMalformedInput))
		return
	}
	strategy, err := strategyFrom(context, c.options)
	if err != nil {
		c.Fail(context, err)
		return
	}
	locale := stringParam(context, LocaleParam)
	if locale == "" {
		locale = c.options.DefaultLocale
	}
	resolved := fusion.LookupLocale(locale)
	context.Add(LocaleParam, resolved.Code)

	prompt := strategy.Render(*timeline, resolved)
	context.Add(PromptParam, prompt)
	c.Succeed(context, prompt)
}
