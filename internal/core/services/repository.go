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

// Package services implements the operations behind the HTTP API: prompt
// building, call analysis and access to stored analyses.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// Service errors.
var (
	ErrNotFound = errors.New("not found")
	ErrBusy     = errors.New("an analysis is already running, try again later")
)

// AnalysisRepository stores finished analyses.
type AnalysisRepository interface {
	Save(ctx context.Context, analysis *model.CallAnalysis) error
	Get(ctx context.Context, id string) (*model.CallAnalysis, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// bigQueryAnalysis is the row layout of the analysis table. Action items are
// stored as a repeated record.
type bigQueryAnalysis struct {
	Id               string             `bigquery:"id"`
	SourceUrl        string             `bigquery:"source_url"`
	PromptUrl        string             `bigquery:"prompt_url"`
	Locale           string             `bigquery:"locale"`
	Strategy         string             `bigquery:"strategy"`
	Prompt           string             `bigquery:"prompt"`
	Summary          string             `bigquery:"summary"`
	CustomerIntent   string             `bigquery:"customer_intent"`
	AgentActions     []string           `bigquery:"agent_actions"`
	Sentiment        string             `bigquery:"sentiment"`
	ResolutionStatus string             `bigquery:"resolution_status"`
	Topics           []string           `bigquery:"topics"`
	ActionItems      []model.ActionItem `bigquery:"action_items"`
	CreateDate       time.Time          `bigquery:"create_date"`
}

func toBigQuery(in *model.CallAnalysis) *bigQueryAnalysis {
	items := make([]model.ActionItem, 0, len(in.ActionItems))
	for _, item := range in.ActionItems {
		if item != nil {
			items = append(items, *item)
		}
	}
	return &bigQueryAnalysis{
		Id:               in.Id,
		SourceUrl:        in.SourceUrl,
		PromptUrl:        in.PromptUrl,
		Locale:           in.Locale,
		Strategy:         in.Strategy,
		Prompt:           in.Prompt,
		Summary:          in.Summary,
		CustomerIntent:   in.CustomerIntent,
		AgentActions:     in.AgentActions,
		Sentiment:        in.Sentiment,
		ResolutionStatus: in.ResolutionStatus,
		Topics:           in.Topics,
		ActionItems:      items,
		CreateDate:       in.CreateDate,
	}
}

func (r *bigQueryAnalysis) toModel() *model.CallAnalysis {
	out := &model.CallAnalysis{
		Id:               r.Id,
		SourceUrl:        r.SourceUrl,
		PromptUrl:        r.PromptUrl,
		Locale:           r.Locale,
		Strategy:         r.Strategy,
		Prompt:           r.Prompt,
		Summary:          r.Summary,
		CustomerIntent:   r.CustomerIntent,
		AgentActions:     r.AgentActions,
		Sentiment:        r.Sentiment,
		ResolutionStatus: r.ResolutionStatus,
		Topics:           r.Topics,
		ActionItems:      make([]*model.ActionItem, 0, len(r.ActionItems)),
		CreateDate:       r.CreateDate,
	}
	for i := range r.ActionItems {
		out.ActionItems = append(out.ActionItems, &r.ActionItems[i])
	}
	return out
}

// BigQueryAnalysisRepository keeps analyses in a BigQuery table.
type BigQueryAnalysisRepository struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	AnalysisTable  string
}

// GetFQN returns the table name in Standard SQL form (project.dataset.table).
func (s *BigQueryAnalysisRepository) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.AnalysisTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

func (s *BigQueryAnalysisRepository) Save(ctx context.Context, analysis *model.CallAnalysis) error {
	inserter := s.BigqueryClient.Dataset(s.DatasetName).Table(s.AnalysisTable).Inserter()
	if err := inserter.Put(ctx, toBigQuery(analysis)); err != nil {
		return fmt.Errorf("bigquery insert of analysis %s failed: %w", analysis.Id, err)
	}
	return nil
}

func (s *BigQueryAnalysisRepository) Get(ctx context.Context, id string) (*model.CallAnalysis, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryFindAnalysisById, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "id", Value: id}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	var row bigQueryAnalysis
	err = itr.Next(&row)
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (s *BigQueryAnalysisRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryDeleteAnalysesBefore, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "cutoff", Value: cutoff}}
	job, err := q.Run(ctx)
	if err != nil {
		return 0, err
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, err
	}
	if err := status.Err(); err != nil {
		return 0, err
	}
	if status.Statistics == nil {
		return 0, nil
	}
	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}
	return 0, nil
}
