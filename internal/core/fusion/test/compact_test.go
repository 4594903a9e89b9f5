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

package fusion_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func event(ts float64, text string, detections []string, texts []string) model.FusedEvent {
	return model.FusedEvent{
		Timestamp:          ts,
		AudioTranscription: text,
		Detections:         model.NewOrderedSet(detections...),
		OnScreenTexts:      model.NewOrderedSet(texts...),
	}
}

func detectionUnion(events []model.FusedEvent) model.OrderedSet {
	out := model.NewOrderedSet()
	for _, e := range events {
		out = out.Union(e.Detections)
	}
	return out
}

func TestNormalizeFrame(t *testing.T) {
	f := fusion.NormalizeFrame(model.RawFrame{Timestamp: 4, Detections: []string{"car", "person", "car"}})
	assert.Equal(t, 4.0, f.Timestamp)
	assert.Equal(t, model.OrderedSet{"car", "person"}, f.Detections)
	assert.NotNil(t, f.OnScreenTexts)
	assert.Len(t, f.OnScreenTexts, 0)
}

func TestFuseFramesAttachesIntervalOnce(t *testing.T) {
	frames := []model.Frame{
		fusion.NormalizeFrame(model.RawFrame{Timestamp: 1}),
		fusion.NormalizeFrame(model.RawFrame{Timestamp: 2}),
	}
	index := fusion.NewAudioIntervalIndex([]model.AudioSegment{{Start: 1, End: 3, Text: "hello"}}, fusion.ConsumedSuppress)

	events := fusion.FuseFrames(frames, index)

	assert.Len(t, events, 2)
	assert.Equal(t, "hello", events[0].AudioTranscription)
	assert.Equal(t, "", events[1].AudioTranscription)
}

func TestFuseFramesNeverDrops(t *testing.T) {
	frames := []model.Frame{
		fusion.NormalizeFrame(model.RawFrame{Timestamp: 0}),
		fusion.NormalizeFrame(model.RawFrame{Timestamp: 1}),
		fusion.NormalizeFrame(model.RawFrame{Timestamp: 2}),
	}
	events := fusion.FuseFrames(frames, fusion.NewAudioIntervalIndex(nil, fusion.ConsumedSuppress))
	assert.Len(t, events, 3)
}

func TestCompactStaticSilentRun(t *testing.T) {
	events := []model.FusedEvent{
		event(0, "", nil, nil),
		event(1, "", []string{"car"}, nil),
		event(2, "", []string{"car"}, nil),
	}

	out := fusion.Compact(events)

	assert.Len(t, out, 1)
	assert.Equal(t, 1.0, out[0].Timestamp)
	assert.Equal(t, model.OrderedSet{"car"}, out[0].Detections)
}

func TestCompactDropsSpaceOnlyTranscription(t *testing.T) {
	out := fusion.Compact([]model.FusedEvent{event(0, " ", nil, nil)})
	assert.Empty(t, out)
}

func TestCompactReplacesSilentPredecessor(t *testing.T) {
	events := []model.FusedEvent{
		event(1, "", []string{"person"}, nil),
		event(2, "", []string{"person", "laptop"}, []string{"Invoice"}),
	}

	out := fusion.Compact(events)

	assert.Len(t, out, 1)
	assert.Equal(t, 2.0, out[0].Timestamp)
	assert.Equal(t, model.OrderedSet{"person", "laptop"}, out[0].Detections)
}

func TestCompactKeepsSpeech(t *testing.T) {
	events := []model.FusedEvent{
		event(1, "hello", []string{"person"}, nil),
		event(2, "how can I help", []string{"person"}, nil),
		event(3, "", []string{"person"}, nil),
	}

	out := fusion.Compact(events)

	assert.Len(t, out, 2)
	assert.Equal(t, "hello", out[0].AudioTranscription)
	assert.Equal(t, "how can I help", out[1].AudioTranscription)
}

func TestCompactDoesNotReplaceSpokenPredecessor(t *testing.T) {
	events := []model.FusedEvent{
		event(1, "hello", nil, nil),
		event(2, "", []string{"person"}, nil),
	}

	out := fusion.Compact(events)

	assert.Len(t, out, 2)
	assert.Equal(t, "hello", out[0].AudioTranscription)
}

func TestCompactKeepsDetectionUnion(t *testing.T) {
	events := []model.FusedEvent{
		event(0, "", []string{"person"}, nil),
		event(1, "", []string{"person", "laptop"}, nil),
		event(2, "", []string{"laptop"}, nil),
		event(3, "", nil, nil),
		event(4, "", []string{"phone"}, nil),
		event(5, "thanks", []string{"phone"}, []string{"Order 7"}),
		event(6, "", []string{"cup"}, []string{"Order 7"}),
	}

	out := fusion.Compact(events)

	assert.ElementsMatch(t, detectionUnion(events), detectionUnion(out))
	assert.Equal(t, out, fusion.Compact(out))
}

func TestDropEmpty(t *testing.T) {
	out := fusion.DropEmpty([]model.FusedEvent{
		event(0, "", nil, nil),
		event(1, "", []string{"car"}, nil),
		event(2, "", []string{"car"}, nil),
	})
	assert.Len(t, out, 2)
}

func TestCompactIsIdempotent(t *testing.T) {
	events := []model.FusedEvent{
		event(0, "", nil, nil),
		event(1, "", []string{"person"}, nil),
		event(2, "", []string{"person", "laptop"}, []string{"Invoice"}),
		event(3, "hi", []string{"person"}, nil),
		event(4, "", []string{"person"}, nil),
		event(5, "bye", []string{"car"}, nil),
	}

	once := fusion.Compact(events)
	assert.Equal(t, []float64{2, 3, 5}, timestamps(once))
	assert.Equal(t, once, fusion.Compact(once))
}

// Three silent events where only the last covers both earlier ones: the
// single pass compares against the last retained event, so a second pass
// folds further.
func TestCompactSilentCoverIsNotIdempotent(t *testing.T) {
	events := []model.FusedEvent{
		event(0, "", []string{"a"}, nil),
		event(1, "", []string{"b"}, nil),
		event(2, "", []string{"a", "b"}, nil),
	}

	once := fusion.Compact(events)
	assert.Equal(t, []float64{0, 2}, timestamps(once))

	twice := fusion.Compact(once)
	assert.Equal(t, []float64{2}, timestamps(twice))
	assert.Equal(t, detectionUnion(events), detectionUnion(twice))
}

func timestamps(events []model.FusedEvent) []float64 {
	out := make([]float64, 0, len(events))
	for _, e := range events {
		out = append(out, e.Timestamp)
	}
	return out
}
