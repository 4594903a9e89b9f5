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

// NormalizeFrame reduces a raw frame's detections and texts to ordered sets.
// Absent arrays become empty sets.
func NormalizeFrame(raw model.RawFrame) model.Frame {
	return model.Frame{
		Timestamp:     raw.Timestamp,
		Detections:    model.NewOrderedSet(raw.Detections...),
		OnScreenTexts: model.NewOrderedSet(raw.Texts...),
	}
}

// NormalizeDocument normalizes every frame of doc, keeping arrival order.
func NormalizeDocument(doc *model.AnalysisDocument) *model.NormalizedDocument {
	out := &model.NormalizedDocument{
		Frames:   make([]model.Frame, 0, len(doc.Frames)),
		Segments: make([]model.AudioSegment, 0, len(doc.AudioTranscription)),
	}
	for _, f := range doc.Frames {
		out.Frames = append(out.Frames, NormalizeFrame(f))
	}
	out.Segments = append(out.Segments, doc.AudioTranscription...)
	return out
}
