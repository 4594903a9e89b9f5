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
// This file, `persistent.go`, contains the structures written to the
// analysis store (BigQuery or Postgres).
package model

import (
	"time"

	"github.com/google/uuid"
)

// ActionItem is a follow-up the language model extracted from the call.
type ActionItem struct {
	Owner       string `json:"owner" bigquery:"owner"`
	Description string `json:"description" bigquery:"description"`
}

// CallAnalysis is the structured result of running a rendered prompt through
// the language model, plus the bookkeeping needed to find it again.
type CallAnalysis struct {
	Id               string        `json:"id" bigquery:"id"`
	SourceUrl        string        `json:"source_url,omitempty" bigquery:"source_url"`
	PromptUrl        string        `json:"prompt_url,omitempty" bigquery:"prompt_url"`
	Locale           string        `json:"locale" bigquery:"locale"`
	Strategy         string        `json:"strategy" bigquery:"strategy"`
	Prompt           string        `json:"prompt,omitempty" bigquery:"prompt"`
	Summary          string        `json:"summary" bigquery:"summary"`
	CustomerIntent   string        `json:"customer_intent" bigquery:"customer_intent"`
	AgentActions     []string      `json:"agent_actions" bigquery:"agent_actions"`
	Sentiment        string        `json:"sentiment" bigquery:"sentiment"`
	ResolutionStatus string        `json:"resolution_status" bigquery:"resolution_status"`
	Topics           []string      `json:"topics" bigquery:"topics"`
	ActionItems      []*ActionItem `json:"action_items" bigquery:"action_items"`
	CreateDate       time.Time     `json:"create_date" bigquery:"create_date"`
}

// NewCallAnalysis creates an empty analysis whose id is derived from the
// source name, so re-processing the same object overwrites rather than
// duplicates.
func NewCallAnalysis(sourceName string) *CallAnalysis {
	return &CallAnalysis{
		Id:           uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceName)).String(),
		CreateDate:   time.Now(),
		AgentActions: make([]string, 0),
		Topics:       make([]string, 0),
		ActionItems:  make([]*ActionItem, 0),
	}
}
