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

package model

// GetExampleAnalysis returns a filled-in analysis used as the few-shot
// example in the analysis prompt template.
func GetExampleAnalysis() *CallAnalysis {
	return &CallAnalysis{
		Summary:          "The customer could not sign in after a password reset. The agent shared their screen, walked the customer through clearing the browser cache and confirmed the login worked.",
		CustomerIntent:   "Regain access to the online account",
		AgentActions:     []string{"Verified the customer's identity", "Guided the customer through clearing the browser cache", "Confirmed a successful login"},
		Sentiment:        "positive",
		ResolutionStatus: "resolved",
		Topics:           []string{"account access", "password reset"},
		ActionItems: []*ActionItem{
			{Owner: "agent", Description: "Send the customer the self-service reset guide by email"},
		},
	}
}
