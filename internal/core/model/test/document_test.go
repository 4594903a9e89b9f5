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

package model_test

import (
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysisDocument(t *testing.T) {
	doc, err := model.ParseAnalysisDocument([]byte(`{
		"frames": [{"timestamp": 1, "detections": ["car", "car"], "texts": []}],
		"audioTranscription": [{"start": 1, "end": 3, "text": "hello"}]
	}`))
	require.NoError(t, err)
	assert.Len(t, doc.Frames, 1)
	assert.Equal(t, []string{"car", "car"}, doc.Frames[0].Detections)
	assert.Equal(t, model.AudioSegment{Start: 1, End: 3, Text: "hello"}, doc.AudioTranscription[0])
}

func TestParseAnalysisDocumentEmptyArrays(t *testing.T) {
	doc, err := model.ParseAnalysisDocument([]byte(`{"frames": [], "audioTranscription": []}`))
	require.NoError(t, err)
	assert.Empty(t, doc.Frames)
	assert.Empty(t, doc.AudioTranscription)
}

func TestParseAnalysisDocumentMalformed(t *testing.T) {
	cases := map[string]string{
		"missing frames":     `{"audioTranscription": []}`,
		"missing audio":      `{"frames": []}`,
		"null frames":        `{"frames": null, "audioTranscription": []}`,
		"not json":           `frames`,
		"wrong frames shape": `{"frames": {}, "audioTranscription": []}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := model.ParseAnalysisDocument([]byte(payload))
			assert.True(t, errors.Is(err, model.ErrMalformedInput), "got %v", err)
		})
	}
}

func TestAudioSegmentContains(t *testing.T) {
	s := model.AudioSegment{Start: 1, End: 3}
	assert.True(t, s.Contains(1))
	assert.True(t, s.Contains(2.99))
	assert.False(t, s.Contains(3))
	assert.False(t, s.Contains(0.5))

	assert.False(t, model.AudioSegment{Start: 2, End: 2}.Contains(2))
	assert.False(t, model.AudioSegment{Start: 3, End: 1}.Contains(2))
}

func TestOrderedSet(t *testing.T) {
	s := model.NewOrderedSet("b", "a", "b", "c", "a")
	assert.Equal(t, model.OrderedSet{"b", "a", "c"}, s)
	assert.True(t, model.OrderedSet{"c", "b"}.SubsetOf(s))
	assert.False(t, model.OrderedSet{"d"}.SubsetOf(s))
	assert.True(t, model.OrderedSet{}.SubsetOf(model.OrderedSet{}))
	assert.Equal(t, "b, a, c", s.Join(", "))
	assert.Equal(t, model.OrderedSet{"b", "a", "c", "d"}, s.Union(model.OrderedSet{"a", "d"}))

	empty := model.NewOrderedSet()
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)
}

func TestFusedEventSilence(t *testing.T) {
	assert.True(t, model.FusedEvent{AudioTranscription: " "}.IsSilent())
	assert.True(t, model.FusedEvent{}.IsEmpty())
	assert.False(t, model.FusedEvent{Detections: model.OrderedSet{"car"}}.IsEmpty())
	assert.False(t, model.FusedEvent{AudioTranscription: "hi"}.IsSilent())
}
