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

// Package fusion turns an analysis document into a prompt. It aligns frames
// with transcription intervals, compacts the resulting timeline, blanks
// recurring overlay text and renders a locale-specific narrative. Everything
// in this package is pure: one call in, one string out, no shared state.
package fusion

import "github.com/jaycherian/gcp-go-call-analysis/internal/core/model"

// ConsumedIntervalMode controls what the index reports for an interval whose
// text has already been attached to an earlier frame.
type ConsumedIntervalMode string

const (
	// ConsumedSuppress returns the segment with its text blanked, so the frame
	// is still known to fall inside speech.
	ConsumedSuppress ConsumedIntervalMode = "suppress"
	// ConsumedOmit reports no match at all.
	ConsumedOmit ConsumedIntervalMode = "omit"
)

// ConsumedIntervalSet maps an interval start to the end it was last emitted
// with.
type ConsumedIntervalSet map[float64]float64

// AudioIntervalIndex answers which transcription interval covers a timestamp
// and makes sure each interval's text is handed out only once. An index is
// built per fusion run and must not be shared between runs.
type AudioIntervalIndex struct {
	segments []model.AudioSegment
	consumed ConsumedIntervalSet
	mode     ConsumedIntervalMode
}

// NewAudioIntervalIndex wraps segments, which are scanned in list order.
func NewAudioIntervalIndex(segments []model.AudioSegment, mode ConsumedIntervalMode) *AudioIntervalIndex {
	if mode == "" {
		mode = ConsumedSuppress
	}
	return &AudioIntervalIndex{
		segments: segments,
		consumed: make(ConsumedIntervalSet),
		mode:     mode,
	}
}

// Find returns the first segment in list order with start <= timestamp < end.
// The first lookup of an interval returns its text and marks it consumed;
// later lookups get an empty text (or no match under ConsumedOmit).
func (x *AudioIntervalIndex) Find(timestamp float64) (model.AudioSegment, bool) {
	for _, s := range x.segments {
		if !s.Contains(timestamp) {
			continue
		}
		if end, ok := x.consumed[s.Start]; ok && end == s.End {
			if x.mode == ConsumedOmit {
				return model.AudioSegment{}, false
			}
			s.Text = ""
			return s, true
		}
		x.consumed[s.Start] = s.End
		return s, true
	}
	return model.AudioSegment{}, false
}

// Consumed returns the intervals handed out so far.
func (x *AudioIntervalIndex) Consumed() ConsumedIntervalSet {
	out := make(ConsumedIntervalSet, len(x.consumed))
	for k, v := range x.consumed {
		out[k] = v
	}
	return out
}
