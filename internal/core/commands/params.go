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

// Package commands holds the individual steps of the prompt and analysis
// workflows. Each command embeds cor.BaseCommand, reads one value from the
// chain context and writes one value back.
package commands

import "github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"

// Context keys shared between commands. Values under CtxIn and CtxOut change
// at every step; these stay put for the whole run.
const (
	DocumentParam  = "__ANALYSIS_DOCUMENT__" // *model.AnalysisDocument
	StrategyParam  = "__FUSION_STRATEGY__"   // string, requested strategy name
	LocaleParam    = "__PROMPT_LOCALE__"     // string, requested locale code
	PromptParam    = "__PROMPT__"            // string, the rendered prompt
	PromptUrlParam = "__PROMPT_URL__"        // string, gs:// address of the uploaded prompt
	SourceParam    = "__SOURCE_NAME__"       // string, identifies the analysed call
	AnalysisParam  = "__CALL_ANALYSIS__"     // *model.CallAnalysis

	strategyImplParam = "__FUSION_STRATEGY_IMPL__" // fusion.Strategy chosen by TimelineFuser
)

// stringParam returns the string under key, or "" when unset.
func stringParam(context cor.Context, key string) string {
	if v, ok := context.Get(key).(string); ok {
		return v
	}
	return ""
}
