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

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

const listSeparator = ", "

// Render serializes the timeline with the phrase table for locale. Unknown
// locales render in DefaultLocale.
func Render(timeline model.Timeline, locale string) string {
	return renderTimeline(timeline, LookupLocale(locale))
}

// renderTimeline writes the preamble, one line per event and, when detections
// were collected separately, a closing summary line.
func renderTimeline(timeline model.Timeline, locale Locale) string {
	lines := make([]string, 0, len(timeline.Events)+2)
	lines = append(lines, locale.Preamble)
	for _, e := range timeline.Events {
		lines = append(lines, renderEvent(e, locale))
	}
	if len(timeline.DetectionSummary) > 0 {
		lines = append(lines, fmt.Sprintf("%s: %s.", locale.DetectedObjectsSummary, timeline.DetectionSummary.Join(listSeparator)))
	}
	return strings.Join(lines, "\n")
}

func renderEvent(e model.FusedEvent, locale Locale) string {
	var b strings.Builder
	if e.EndTimestamp != nil {
		fmt.Fprintf(&b, locale.Between, formatSecond(e.Timestamp), formatSecond(*e.EndTimestamp))
	} else {
		fmt.Fprintf(&b, locale.AtSecond, formatSecond(e.Timestamp))
	}
	if speech := strings.TrimSpace(e.AudioTranscription); speech != "" {
		fmt.Fprintf(&b, ", %s: %s", locale.AudioTranscription, speech)
	}
	if len(e.OnScreenTexts) > 0 {
		appendClause(&b, locale.OnScreenText, e.OnScreenTexts)
	}
	if len(e.Detections) > 0 {
		appendClause(&b, locale.ObjectsDetected, e.Detections)
	}
	if !endsSentence(b.String()) {
		b.WriteString(".")
	}
	return b.String()
}

func appendClause(b *strings.Builder, label string, values model.OrderedSet) {
	if endsSentence(b.String()) {
		b.WriteString(" ")
	} else {
		b.WriteString(". ")
	}
	fmt.Fprintf(b, "%s: %s", label, values.Join(listSeparator))
}

func endsSentence(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!")
}

// formatSecond prints whole seconds without a fraction and everything else
// with the shortest exact representation.
func formatSecond(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
