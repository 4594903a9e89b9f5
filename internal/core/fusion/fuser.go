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
	"math"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// FuseFrames attaches at most one transcription snippet to each frame. It is
// a plain left-to-right fold: one event per frame, none dropped.
func FuseFrames(frames []model.Frame, index *AudioIntervalIndex) []model.FusedEvent {
	out := make([]model.FusedEvent, 0, len(frames))
	for _, f := range frames {
		event := model.FusedEvent{
			Timestamp:     f.Timestamp,
			Detections:    f.Detections,
			OnScreenTexts: f.OnScreenTexts,
		}
		if s, ok := index.Find(f.Timestamp); ok {
			event.AudioTranscription = s.Text
		}
		out = append(out, event)
	}
	return out
}

// FuseIntervals groups frames by transcription interval. Frames before the
// first interval, between intervals and at or after the last one get silent
// buckets of their own, so every frame lands in some bucket. Without any
// interval all frames share a single silent bucket.
func FuseIntervals(frames []model.Frame, segments []model.AudioSegment) []model.FusedEvent {
	out := make([]model.FusedEvent, 0, 2*len(segments)+1)
	if len(frames) == 0 && len(segments) == 0 {
		return out
	}
	if len(segments) == 0 {
		first, last := frames[0].Timestamp, frames[len(frames)-1].Timestamp
		return append(out, bucket(frames, first, last, "", func(ts float64) bool { return true }))
	}

	covered := func(ts float64) bool {
		for _, s := range segments {
			if s.Contains(ts) {
				return true
			}
		}
		return false
	}
	// gap returns a silent bucket for the uncovered frames in [start, end),
	// or false when no frame falls there.
	gap := func(start, end float64) (model.FusedEvent, bool) {
		member := func(ts float64) bool { return ts >= start && ts < end && !covered(ts) }
		for _, f := range frames {
			if member(f.Timestamp) {
				return bucket(frames, start, end, "", member), true
			}
		}
		return model.FusedEvent{}, false
	}

	if first := segments[0]; first.Start != 0 {
		out = append(out, bucket(frames, 0, first.Start, "", func(ts float64) bool {
			return ts >= 0 && ts < first.Start
		}))
	}

	consumed := make(ConsumedIntervalSet)
	reached := segments[0].End
	for i, s := range segments {
		if i > 0 && s.Start > reached {
			if event, ok := gap(reached, s.Start); ok {
				out = append(out, event)
			}
		}
		text := s.Text
		if end, ok := consumed[s.Start]; ok && end == s.End {
			text = ""
		}
		consumed[s.Start] = s.End
		out = append(out, bucket(frames, s.Start, s.End, text, s.Contains))
		if s.End > reached {
			reached = s.End
		}
	}

	if len(frames) > 0 {
		lastFrame := frames[len(frames)-1].Timestamp
		if event, ok := gap(reached, math.Nextafter(lastFrame, math.Inf(1))); ok {
			event.EndTimestamp = &lastFrame
			out = append(out, event)
		}
	}
	return out
}

func bucket(frames []model.Frame, start, end float64, text string, member func(float64) bool) model.FusedEvent {
	event := model.FusedEvent{
		Timestamp:          start,
		EndTimestamp:       &end,
		AudioTranscription: text,
		Detections:         model.NewOrderedSet(),
		OnScreenTexts:      model.NewOrderedSet(),
	}
	for _, f := range frames {
		if !member(f.Timestamp) {
			continue
		}
		event.Detections = event.Detections.Union(f.Detections)
		event.OnScreenTexts = event.OnScreenTexts.Union(f.OnScreenTexts)
	}
	return event
}
