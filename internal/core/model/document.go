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
// This file, `document.go`, holds the wire format of the analysis document
// produced by the upstream video-analysis step: sampled frames with their
// detections and on-screen text, plus the speech-to-text segments.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedInput is returned when an analysis document is missing one of
// its required top-level arrays.
var ErrMalformedInput = errors.New("malformed analysis document")

// RawFrame is a single sampled video frame as emitted by the analyzer.
// Detections and Texts may contain duplicates or be absent entirely.
type RawFrame struct {
	Timestamp  float64  `json:"timestamp"`
	Detections []string `json:"detections"`
	Texts      []string `json:"texts"`
}

// AudioSegment is a transcribed utterance covering the half-open interval
// [Start, End) in seconds.
type AudioSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Contains reports whether the timestamp falls inside [Start, End).
// Zero-length and inverted segments contain nothing.
func (s AudioSegment) Contains(timestamp float64) bool {
	return s.Start < s.End && s.Start <= timestamp && timestamp < s.End
}

// AnalysisDocument is the complete input for one prompt build. Frames are
// expected in ascending timestamp order; AudioTranscription is scanned in
// list order.
type AnalysisDocument struct {
	Frames             []RawFrame     `json:"frames"`
	AudioTranscription []AudioSegment `json:"audioTranscription"`
}

// ParseAnalysisDocument decodes and validates an analysis document. Both
// top-level arrays must be present (an empty array is fine, a missing key or
// a JSON null is not).
func ParseAnalysisDocument(data []byte) (*AnalysisDocument, error) {
	var probe struct {
		Frames             *[]RawFrame     `json:"frames"`
		AudioTranscription *[]AudioSegment `json:"audioTranscription"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if probe.Frames == nil {
		return nil, fmt.Errorf("%w: missing frames", ErrMalformedInput)
	}
	if probe.AudioTranscription == nil {
		return nil, fmt.Errorf("%w: missing audioTranscription", ErrMalformedInput)
	}
	return &AnalysisDocument{
		Frames:             *probe.Frames,
		AudioTranscription: *probe.AudioTranscription,
	}, nil
}
