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

// Compact collapses a fused timeline in one left-to-right pass, comparing
// each event against the last retained one:
//
//  1. a silent event with no detections and no text is dropped;
//  2. a silent event whose sets are subsets of the previous event's is dropped;
//  3. a silent previous event whose sets are subsets of this event's is
//     replaced by this event;
//  4. anything else is appended.
func Compact(events []model.FusedEvent) []model.FusedEvent {
	out := make([]model.FusedEvent, 0, len(events))
	for _, e := range events {
		if e.IsEmpty() {
			continue
		}
		if n := len(out); n > 0 {
			prev := out[n-1]
			if e.IsSilent() && subsumes(prev, e) {
				continue
			}
			if prev.IsSilent() && subsumes(e, prev) {
				out[n-1] = e
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// DropEmpty only applies the first compaction rule. Interval buckets are
// already grouped, so the subsumption rules do not apply to them.
func DropEmpty(events []model.FusedEvent) []model.FusedEvent {
	out := make([]model.FusedEvent, 0, len(events))
	for _, e := range events {
		if !e.IsEmpty() {
			out = append(out, e)
		}
	}
	return out
}

// subsumes reports whether a carries every detection and text of b.
func subsumes(a, b model.FusedEvent) bool {
	return b.Detections.SubsetOf(a.Detections) && b.OnScreenTexts.SubsetOf(a.OnScreenTexts)
}
