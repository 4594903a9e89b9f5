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
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
	"github.com/stretchr/testify/assert"
)

const enPreamble = "The following info is the output of an analysis of a video call conversation between an agent and customer:"

func TestRenderFrameEvents(t *testing.T) {
	timeline := model.Timeline{Events: []model.FusedEvent{
		event(1, " hello", []string{"person"}, nil),
		event(2.5, "", []string{"person", "laptop"}, []string{"Invoice #42", "Total"}),
	}}

	out := fusion.Render(timeline, "en")

	assert.Equal(t, strings.Join([]string{
		enPreamble,
		"At second 1, Audio transcription: hello. Objects detected: person.",
		"At second 2.5. On screen text: Invoice #42, Total. Objects detected: person, laptop.",
	}, "\n"), out)
}

func TestRenderDoesNotDoublePunctuate(t *testing.T) {
	timeline := model.Timeline{Events: []model.FusedEvent{event(3, "Is that all?", nil, nil)}}

	out := fusion.Render(timeline, "en")

	assert.Equal(t, enPreamble+"\nAt second 3, Audio transcription: Is that all?", out)
}

func TestRenderSkipsWhitespaceTranscription(t *testing.T) {
	timeline := model.Timeline{Events: []model.FusedEvent{
		event(1, "  ", []string{"car"}, nil),
		event(2, "\n", nil, []string{"Total"}),
	}}

	out := fusion.Render(timeline, "en")

	assert.Equal(t, strings.Join([]string{
		enPreamble,
		"At second 1. Objects detected: car.",
		"At second 2. On screen text: Total.",
	}, "\n"), out)
}

func TestRenderTurkish(t *testing.T) {
	timeline := model.Timeline{Events: []model.FusedEvent{event(1, "", []string{"car"}, nil)}}

	out := fusion.Render(timeline, "tr")

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "1. saniyede. Tespit edilen nesneler: car.", lines[1])
}

func TestRenderUnknownLocaleFallsBack(t *testing.T) {
	timeline := model.Timeline{Events: []model.FusedEvent{event(1, "", []string{"car"}, nil)}}

	assert.Equal(t, fusion.Render(timeline, "en"), fusion.Render(timeline, "xx"))
	assert.Equal(t, fusion.Render(timeline, "en"), fusion.Render(timeline, ""))
	assert.Equal(t, fusion.Render(timeline, "tr"), fusion.Render(timeline, " TR "))
}

func TestRenderEmptyTimeline(t *testing.T) {
	assert.Equal(t, enPreamble, fusion.Render(model.Timeline{}, "en"))
}

func TestSupportedLocales(t *testing.T) {
	assert.Equal(t, []string{"en", "tr"}, fusion.SupportedLocales())
	assert.True(t, fusion.IsSupportedLocale("tr"))
	assert.False(t, fusion.IsSupportedLocale("xx"))
	assert.Equal(t, "en", fusion.LookupLocale("xx").Code)
}
