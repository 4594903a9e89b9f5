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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains the in-memory shapes that flow between
// the prompt-building commands. None of them are persisted; they live for a
// single request and are discarded once the prompt string is produced.
package model

import "strings"

// OrderedSet is a list of unique strings kept in order of first insertion.
// Membership tests ignore order, display keeps it.
type OrderedSet []string

// NewOrderedSet builds an OrderedSet from values, dropping duplicates and
// keeping the first occurrence. The result is never nil.
func NewOrderedSet(values ...string) OrderedSet {
	out := make(OrderedSet, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Contains reports whether value is a member of the set.
func (s OrderedSet) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every member of s is also in other. The empty set
// is a subset of everything.
func (s OrderedSet) SubsetOf(other OrderedSet) bool {
	for _, v := range s {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// Union returns s followed by the members of other not already in s.
func (s OrderedSet) Union(other OrderedSet) OrderedSet {
	out := make(OrderedSet, 0, len(s)+len(other))
	out = append(out, s...)
	return NewOrderedSet(append(out, other...)...)
}

// Join concatenates the members with sep.
func (s OrderedSet) Join(sep string) string {
	return strings.Join(s, sep)
}

// Frame is a normalized RawFrame.
type Frame struct {
	Timestamp     float64
	Detections    OrderedSet
	OnScreenTexts OrderedSet
}

// NormalizedDocument is the output of frame normalization: canonical frames
// plus the untouched audio segments.
type NormalizedDocument struct {
	Frames   []Frame
	Segments []AudioSegment
}

// FusedEvent is one point on the fused timeline. EndTimestamp is only set by
// the interval-grouped strategy, where an event spans [Timestamp, End].
type FusedEvent struct {
	Timestamp          float64    `json:"timestamp"`
	EndTimestamp       *float64   `json:"endTimestamp,omitempty"`
	AudioTranscription string     `json:"audioTranscription"`
	Detections         OrderedSet `json:"detections"`
	OnScreenTexts      OrderedSet `json:"onScreenTexts"`
}

// IsSilent reports whether the event carries no transcription. A single
// space counts as silence.
func (e FusedEvent) IsSilent() bool {
	return e.AudioTranscription == "" || e.AudioTranscription == " "
}

// IsEmpty reports whether the event carries no information at all.
func (e FusedEvent) IsEmpty() bool {
	return e.IsSilent() && len(e.Detections) == 0 && len(e.OnScreenTexts) == 0
}

// Timeline is the ordered sequence of fused events. DetectionSummary is only
// populated when detections are reported as one bag for the whole call
// instead of per event.
type Timeline struct {
	Events           []FusedEvent `json:"events"`
	DetectionSummary OrderedSet   `json:"detectionSummary,omitempty"`
}
