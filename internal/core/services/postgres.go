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

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// PgExecutor is the subset of *pgxpool.Pool the repository uses.
type PgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresAnalysisRepository keeps analyses in the call_analyses table.
type PostgresAnalysisRepository struct {
	Pool PgExecutor
}

// EnsureSchema creates the table and its index if they do not exist.
func (s *PostgresAnalysisRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{PgCreateAnalysisTable, PgCreateAnalysisIndex} {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresAnalysisRepository) Save(ctx context.Context, a *model.CallAnalysis) error {
	items, err := json.Marshal(a.ActionItems)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, PgUpsertAnalysis,
		a.Id, a.SourceUrl, a.PromptUrl, a.Locale, a.Strategy, a.Prompt, a.Summary, a.CustomerIntent,
		nonNil(a.AgentActions), a.Sentiment, a.ResolutionStatus, nonNil(a.Topics), items, a.CreateDate)
	if err != nil {
		return fmt.Errorf("postgres upsert of analysis %s failed: %w", a.Id, err)
	}
	return nil
}

func (s *PostgresAnalysisRepository) Get(ctx context.Context, id string) (*model.CallAnalysis, error) {
	a := &model.CallAnalysis{}
	var items []byte
	err := s.Pool.QueryRow(ctx, PgFindAnalysisById, id).Scan(
		&a.Id, &a.SourceUrl, &a.PromptUrl, &a.Locale, &a.Strategy, &a.Prompt, &a.Summary, &a.CustomerIntent,
		&a.AgentActions, &a.Sentiment, &a.ResolutionStatus, &a.Topics, &items, &a.CreateDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &a.ActionItems); err != nil {
		return nil, fmt.Errorf("analysis %s has corrupt action items: %w", id, err)
	}
	return a, nil
}

func (s *PostgresAnalysisRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, PgDeleteAnalysesBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
