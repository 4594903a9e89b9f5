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

import "github.com/jaycherian/gcp-go-call-analysis/internal/core/model"

// DefaultBackgroundTextMaxRatio blanks any on-screen text found in at least a
// quarter of the text-bearing events.
const DefaultBackgroundTextMaxRatio = 4.0

const backgroundKeySeparator = ", "

// BackgroundTextFilter blanks on-screen text that recurs often enough to be a
// static overlay (a logo, a caller id banner) rather than conversation. Each
// event's texts are compared as one joined key.
type BackgroundTextFilter struct {
	// MaxRatio is the largest N/f for which a text is treated as background,
	// where N counts text-bearing events and f counts events with that text.
	MaxRatio float64
}

// NewBackgroundTextFilter returns a filter using maxRatio, or the default
// when maxRatio is not positive.
func NewBackgroundTextFilter(maxRatio float64) *BackgroundTextFilter {
	if maxRatio <= 0 {
		maxRatio = DefaultBackgroundTextMaxRatio
	}
	return &BackgroundTextFilter{MaxRatio: maxRatio}
}

// Filter tallies every joined text value across the whole timeline, then
// returns a copy with the background values blanked. Detections are left
// alone.
func (f *BackgroundTextFilter) Filter(events []model.FusedEvent) []model.FusedEvent {
	counts := make(map[string]int)
	total := 0
	for _, e := range events {
		if len(e.OnScreenTexts) == 0 {
			continue
		}
		counts[e.OnScreenTexts.Join(backgroundKeySeparator)]++
		total++
	}

	background := make(map[string]bool)
	for text, count := range counts {
		if float64(total)/float64(count) <= f.MaxRatio {
			background[text] = true
		}
	}

	out := make([]model.FusedEvent, len(events))
	copy(out, events)
	if len(background) == 0 {
		return out
	}
	for i := range out {
		if len(out[i].OnScreenTexts) == 0 {
			continue
		}
		if background[out[i].OnScreenTexts.Join(backgroundKeySeparator)] {
			out[i].OnScreenTexts = model.NewOrderedSet()
		}
	}
	return out
}
