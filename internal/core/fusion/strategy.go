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
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// Strategy names accepted in configuration and on the API.
const (
	StrategyFrameGrouped    = "frame-grouped"
	StrategyIntervalGrouped = "interval-grouped"
)

// ErrUnknownStrategy is returned for a strategy name with no implementation.
var ErrUnknownStrategy = errors.New("unknown fusion strategy")

// Strategy is one way of turning normalized frames and segments into a
// rendered timeline. Implementations hold configuration only; all per-run
// state is created inside Fuse.
type Strategy interface {
	Name() string
	Fuse(doc *model.NormalizedDocument) model.Timeline
	Compact(timeline model.Timeline) model.Timeline
	Render(timeline model.Timeline, locale Locale) string
}

// Options configures the prompt pipeline.
type Options struct {
	Strategy               string
	SeparateDetections     bool
	BackgroundTextMaxRatio float64
	ConsumedIntervalMode   ConsumedIntervalMode
	DefaultLocale          string
}

// DefaultOptions is the frame-grouped strategy with the stock thresholds.
func DefaultOptions() Options {
	return Options{
		Strategy:               StrategyFrameGrouped,
		BackgroundTextMaxRatio: DefaultBackgroundTextMaxRatio,
		ConsumedIntervalMode:   ConsumedSuppress,
		DefaultLocale:          DefaultLocale,
	}
}

// NewStrategy builds the strategy named in opts. An empty name selects the
// frame-grouped strategy.
func NewStrategy(opts Options) (Strategy, error) {
	switch opts.Strategy {
	case "", StrategyFrameGrouped:
		return &FrameGrouped{SeparateDetections: opts.SeparateDetections, ConsumedMode: opts.ConsumedIntervalMode}, nil
	case StrategyIntervalGrouped:
		return &IntervalGrouped{}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownStrategy, opts.Strategy)
	}
}

// FrameGrouped emits one event per frame and relies on compaction to keep only
// the frames that introduce something new. With SeparateDetections the
// detections are pulled out into a single bag for the whole call and the
// events only carry speech and on-screen text.
type FrameGrouped struct {
	SeparateDetections bool
	ConsumedMode       ConsumedIntervalMode
}

func (s *FrameGrouped) Name() string {
	return StrategyFrameGrouped
}

func (s *FrameGrouped) Fuse(doc *model.NormalizedDocument) model.Timeline {
	index := NewAudioIntervalIndex(doc.Segments, s.ConsumedMode)
	events := FuseFrames(doc.Frames, index)
	if !s.SeparateDetections {
		return model.Timeline{Events: events}
	}
	bag := model.NewOrderedSet()
	for i := range events {
		bag = bag.Union(events[i].Detections)
		events[i].Detections = model.NewOrderedSet()
	}
	return model.Timeline{Events: events, DetectionSummary: bag}
}

func (s *FrameGrouped) Compact(timeline model.Timeline) model.Timeline {
	return model.Timeline{Events: Compact(timeline.Events), DetectionSummary: timeline.DetectionSummary}
}

func (s *FrameGrouped) Render(timeline model.Timeline, locale Locale) string {
	return renderTimeline(timeline, locale)
}

// IntervalGrouped emits one event per transcription interval, merging the
// detections and texts of every frame inside it.
type IntervalGrouped struct{}

func (s *IntervalGrouped) Name() string {
	return StrategyIntervalGrouped
}

func (s *IntervalGrouped) Fuse(doc *model.NormalizedDocument) model.Timeline {
	return model.Timeline{Events: FuseIntervals(doc.Frames, doc.Segments)}
}

func (s *IntervalGrouped) Compact(timeline model.Timeline) model.Timeline {
	return model.Timeline{Events: DropEmpty(timeline.Events), DetectionSummary: timeline.DetectionSummary}
}

func (s *IntervalGrouped) Render(timeline model.Timeline, locale Locale) string {
	return renderTimeline(timeline, locale)
}
