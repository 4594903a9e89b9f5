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

package workflow

import (
	"fmt"
	"text/template"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/commands"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
)

// DefaultAnalysisTemplate is used when [prompt_templates].analysis is empty.
const DefaultAnalysisTemplate = `You are reviewing a recorded video call between a support agent and a customer.
The timeline below was extracted from the recording.

{{.PROMPT}}

Analyse the call and answer with a single JSON object with the fields
summary, customer_intent, agent_actions, sentiment, resolution_status,
topics and action_items. {{.LANGUAGE_NOTE}}

Example answer:
{{.EXAMPLE_JSON}}
`

// AnalysisWorkflow runs a raw analysis document through prompt building, an
// optional prompt upload, the language model and persistence. The finished
// model.CallAnalysis is left under CtxOut and commands.AnalysisParam.
type AnalysisWorkflow struct {
	cor.BaseCommand
	config           *cloud.Config
	storageClient    *storage.Client
	generator        cloud.TextGenerator
	writer           commands.AnalysisWriter
	analysisTemplate *template.Template
	chain            cor.Chain
}

func (m *AnalysisWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

func (m *AnalysisWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())
	out.AddCommand(NewPromptBuilderWorkflow(m.config.Fusion.Options()))
	if m.storageClient != nil && m.config.Storage.PromptOutputBucket != "" {
		out.AddCommand(commands.NewPromptUpload("upload-prompt", m.storageClient, m.config.Storage.PromptOutputBucket))
	}
	out.AddCommand(commands.NewCallAnalysisCreator("generate-call-analysis", m.generator, m.analysisTemplate))
	out.AddCommand(commands.NewCallAnalysisJsonToStruct("convert-call-analysis"))
	out.AddCommand(commands.NewAnalysisPersist("persist-call-analysis", m.writer))
	m.chain = out
}

// NewAnalysisWorkflow builds the analysis chain. A nil storage client skips
// the prompt upload.
func NewAnalysisWorkflow(
	config *cloud.Config,
	storageClient *storage.Client,
	generator cloud.TextGenerator,
	writer commands.AnalysisWriter) (*AnalysisWorkflow, error) {

	text := config.PromptTemplates.AnalysisPrompt
	if text == "" {
		text = DefaultAnalysisTemplate
	}
	analysisTemplate, err := template.New("analysis-template").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis template: %w", err)
	}
	if generator == nil {
		return nil, fmt.Errorf("no agent model configured for analysis")
	}

	out := &AnalysisWorkflow{
		BaseCommand:      *cor.NewBaseCommand("analysis-workflow"),
		config:           config,
		storageClient:    storageClient,
		generator:        generator,
		writer:           writer,
		analysisTemplate: analysisTemplate,
	}
	out.initializeChain()
	return out, nil
}

// CallAnalysisWorkflow handles a Cloud Storage notification for an uploaded
// analysis document: it downloads the document and hands it to the
// AnalysisWorkflow.
type CallAnalysisWorkflow struct {
	cor.BaseCommand
	storageClient *storage.Client
	analysis      *AnalysisWorkflow
	chain         cor.Chain
}

func (m *CallAnalysisWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

func (m *CallAnalysisWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())
	out.AddCommand(commands.NewAnalysisTriggerToGCSObject("analysis-trigger-to-gcs-object"))
	out.AddCommand(commands.NewGCSToTempFile("gcs-to-temp-file", m.storageClient, "call-analysis-"))
	out.AddCommand(commands.NewTempFileReader("read-analysis-document"))
	out.AddCommand(m.analysis)
	m.chain = out
}

func NewCallAnalysisWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string,
	writer commands.AnalysisWriter) (*CallAnalysisWorkflow, error) {

	analysis, err := NewAnalysisWorkflow(config, serviceClients.StorageClient, serviceClients.AgentModels[agentModelName], writer)
	if err != nil {
		return nil, err
	}
	out := &CallAnalysisWorkflow{
		BaseCommand:   *cor.NewBaseCommand("call-analysis-workflow"),
		storageClient: serviceClients.StorageClient,
		analysis:      analysis,
	}
	out.initializeChain()
	return out, nil
}
