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

package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/commands"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/workflow"
)

// AnalysisTopic is the [topic_subscriptions] key for analysis document
// notifications.
const AnalysisTopic = "analysis"

// SetupListeners attaches the call analysis workflow to the analysis topic
// and starts listening.
func SetupListeners(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients, writer commands.AnalysisWriter) error {
	listener, ok := cloudClients.PubSubListeners[AnalysisTopic]
	if !ok {
		slog.Warn("no analysis subscription configured, bucket notifications are ignored")
		return nil
	}
	callAnalysis, err := workflow.NewCallAnalysisWorkflow(config, cloudClients, config.Application.AgentModel, writer)
	if err != nil {
		return err
	}
	listener.SetCommand(callAnalysis)
	listener.Listen(ctx)
	return nil
}
