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

package fusion

import (
	"fmt"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// BuildTimeline runs normalize, fuse, compact and the background filter and
// returns the retained timeline together with the strategy that built it.
func BuildTimeline(doc *model.AnalysisDocument, opts Options) (model.Timeline, Strategy, error) {
	if doc == nil {
		return model.Timeline{}, nil, fmt.Errorf("%w: no document", model.ErrMalformedInput)
	}
	strategy, err := NewStrategy(opts)
	if err != nil {
		return model.Timeline{}, nil, err
	}
	normalized := NormalizeDocument(doc)
	timeline := strategy.Compact(strategy.Fuse(normalized))
	timeline.Events = NewBackgroundTextFilter(opts.BackgroundTextMaxRatio).Filter(timeline.Events)
	return timeline, strategy, nil
}

// BuildPrompt turns a parsed analysis document into the prompt text. An empty
// locale uses opts.DefaultLocale.
func BuildPrompt(doc *model.AnalysisDocument, locale string, opts Options) (string, error) {
	timeline, strategy, err := BuildTimeline(doc, opts)
	if err != nil {
		return "", err
	}
	if locale == "" {
		locale = opts.DefaultLocale
	}
	return strategy.Render(timeline, LookupLocale(locale)), nil
}
