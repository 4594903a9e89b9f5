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
	"sort"
	"strings"
)

// DefaultLocale is used whenever a caller asks for a locale we do not have.
const DefaultLocale = "en"

// Locale is the phrase table used to render a timeline. AtSecond and Between
// are format strings taking the formatted timestamps.
type Locale struct {
	Code                   string
	Preamble               string
	AtSecond               string
	Between                string
	AudioTranscription     string
	OnScreenText           string
	ObjectsDetected        string
	DetectedObjectsSummary string
}

var locales = map[string]Locale{
	"en": {
		Code:                   "en",
		Preamble:               "The following info is the output of an analysis of a video call conversation between an agent and customer:",
		AtSecond:               "At second %s",
		Between:                "Between second %s and second %s",
		AudioTranscription:     "Audio transcription",
		OnScreenText:           "On screen text",
		ObjectsDetected:        "Objects detected",
		DetectedObjectsSummary: "Detected objects in the video",
	},
	"tr": {
		Code:                   "tr",
		Preamble:               "Aşağıdaki bilgiler, bir temsilci ile müşteri arasındaki görüntülü görüşmenin analiz çıktısıdır:",
		AtSecond:               "%s. saniyede",
		Between:                "%s. saniye ile %s. saniye arasında",
		AudioTranscription:     "Ses dökümü",
		OnScreenText:           "Ekrandaki metin",
		ObjectsDetected:        "Tespit edilen nesneler",
		DetectedObjectsSummary: "Videoda tespit edilen nesneler",
	},
}

// LookupLocale returns the phrase table for code, falling back to
// DefaultLocale. It never fails.
func LookupLocale(code string) Locale {
	if l, ok := locales[strings.ToLower(strings.TrimSpace(code))]; ok {
		return l
	}
	return locales[DefaultLocale]
}

// IsSupportedLocale reports whether code has its own phrase table.
func IsSupportedLocale(code string) bool {
	_, ok := locales[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// SupportedLocales lists the locale codes in sorted order.
func SupportedLocales() []string {
	out := make([]string, 0, len(locales))
	for code := range locales {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
