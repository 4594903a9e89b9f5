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

func TestFindReturnsFirstMatchInListOrder(t *testing.T) {
	index := fusion.NewAudioIntervalIndex([]model.AudioSegment{
		{Start: 0, End: 5, Text: "outer"},
		{Start: 2, End: 4, Text: "inner"},
	}, fusion.ConsumedSuppress)

	s, ok := index.Find(3)
	assert.True(t, ok)
	assert.Equal(t, "outer", s.Text)
}

func TestFindSuppressesConsumedInterval(t *testing.T) {
	index := fusion.NewAudioIntervalIndex([]model.AudioSegment{{Start: 1, End: 3, Text: "hello"}}, "")

	first, ok := index.Find(1)
	assert.True(t, ok)
	assert.Equal(t, "hello", first.Text)

	second, ok := index.Find(2)
	assert.True(t, ok)
	assert.Equal(t, "", second.Text)
	assert.Equal(t, 1.0, second.Start)
	assert.Equal(t, 3.0, second.End)

	assert.Equal(t, fusion.ConsumedIntervalSet{1: 3}, index.Consumed())
}

func TestFindOmitsConsumedInterval(t *testing.T) {
	index := fusion.NewAudioIntervalIndex([]model.AudioSegment{{Start: 1, End: 3, Text: "hello"}}, fusion.ConsumedOmit)

	_, ok := index.Find(1)
	assert.True(t, ok)
	_, ok = index.Find(2)
	assert.False(t, ok)
}

func TestFindIsHalfOpen(t *testing.T) {
	index := fusion.NewAudioIntervalIndex([]model.AudioSegment{{Start: 1, End: 3, Text: "hello"}}, fusion.ConsumedSuppress)

	_, ok := index.Find(3)
	assert.False(t, ok)
	_, ok = index.Find(0.999)
	assert.False(t, ok)
}

func TestFindNeverMatchesEmptyIntervals(t *testing.T) {
	index := fusion.NewAudioIntervalIndex([]model.AudioSegment{
		{Start: 2, End: 2, Text: "zero"},
		{Start: 3, End: 1, Text: "negative"},
	}, fusion.ConsumedSuppress)

	for _, ts := range []float64{1, 2, 2.5, 3} {
		_, ok := index.Find(ts)
		assert.False(t, ok, "timestamp %v", ts)
	}
	assert.Empty(t, index.Consumed())
}

func TestIndexesDoNotShareState(t *testing.T) {
	segments := []model.AudioSegment{{Start: 0, End: 2, Text: "hi"}}
	a := fusion.NewAudioIntervalIndex(segments, fusion.ConsumedSuppress)
	b := fusion.NewAudioIntervalIndex(segments, fusion.ConsumedSuppress)

	s, _ := a.Find(1)
	assert.Equal(t, "hi", s.Text)
	s, _ = b.Find(1)
	assert.Equal(t, "hi", s.Text)
}
