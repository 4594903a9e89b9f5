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

// BigQuery statements. %s is the fully qualified table name.
const (
	QryFindAnalysisById = "SELECT * FROM `%s` WHERE id = @id LIMIT 1"

	QryDeleteAnalysesBefore = "DELETE FROM `%s` WHERE create_date < @cutoff"
)

// Postgres statements.
const (
	PgCreateAnalysisTable = `CREATE TABLE IF NOT EXISTS call_analyses (
    id                TEXT PRIMARY KEY,
    source_url        TEXT NOT NULL DEFAULT '',
    prompt_url        TEXT NOT NULL DEFAULT '',
    locale            TEXT NOT NULL DEFAULT '',
    strategy          TEXT NOT NULL DEFAULT '',
    prompt            TEXT NOT NULL DEFAULT '',
    summary           TEXT NOT NULL DEFAULT '',
    customer_intent   TEXT NOT NULL DEFAULT '',
    agent_actions     TEXT[] NOT NULL DEFAULT '{}',
    sentiment         TEXT NOT NULL DEFAULT '',
    resolution_status TEXT NOT NULL DEFAULT '',
    topics            TEXT[] NOT NULL DEFAULT '{}',
    action_items      JSONB NOT NULL DEFAULT '[]',
    create_date       TIMESTAMPTZ NOT NULL
)`

	PgCreateAnalysisIndex = `CREATE INDEX IF NOT EXISTS call_analyses_create_date_idx ON call_analyses (create_date)`

	PgUpsertAnalysis = `INSERT INTO call_analyses (
    id, source_url, prompt_url, locale, strategy, prompt, summary, customer_intent,
    agent_actions, sentiment, resolution_status, topics, action_items, create_date
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (id) DO UPDATE SET
    source_url = EXCLUDED.source_url,
    prompt_url = EXCLUDED.prompt_url,
    locale = EXCLUDED.locale,
    strategy = EXCLUDED.strategy,
    prompt = EXCLUDED.prompt,
    summary = EXCLUDED.summary,
    customer_intent = EXCLUDED.customer_intent,
    agent_actions = EXCLUDED.agent_actions,
    sentiment = EXCLUDED.sentiment,
    resolution_status = EXCLUDED.resolution_status,
    topics = EXCLUDED.topics,
    action_items = EXCLUDED.action_items,
    create_date = EXCLUDED.create_date`

	PgFindAnalysisById = `SELECT id, source_url, prompt_url, locale, strategy, prompt, summary, customer_intent,
    agent_actions, sentiment, resolution_status, topics, action_items, create_date
FROM call_analyses WHERE id = $1`

	PgDeleteAnalysesBefore = `DELETE FROM call_analyses WHERE create_date < $1`
)
