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

package commands_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/commands"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/fusion"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
	test "github.com/jaycherian/gcp-go-call-analysis/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(in any) cor.Context {
	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	if in != nil {
		c.Add(cor.CtxIn, in)
	}
	return c
}

func TestAnalysisTriggerToGCSObject(t *testing.T) {
	cmd := commands.NewAnalysisTriggerToGCSObject("trigger")
	c := newContext(test.GetTestAnalysisMessageText())

	cmd.Execute(c)

	require.NoError(t, c.Err())
	obj := c.Get(cor.CtxOut).(*cloud.GCSObject)
	assert.Equal(t, "call_analysis_input", obj.Bucket)
	assert.Equal(t, "calls/call-0001.json", obj.Name)
	assert.Equal(t, "application/json", obj.MIMEType)
	assert.Same(t, obj, c.Get(cloud.GCSObjectParam))
	assert.Equal(t, "gs://call_analysis_input/calls/call-0001.json", c.Get(commands.SourceParam))
}

func TestAnalysisTriggerIgnoresPromptObjects(t *testing.T) {
	cmd := commands.NewAnalysisTriggerToGCSObject("trigger")
	c := newContext(`{"bucket": "b", "name": "calls/call-0001.prompt.txt"}`)

	cmd.Execute(c)

	assert.NoError(t, c.Err())
	assert.Nil(t, c.Get(cor.CtxOut))
}

func TestAnalysisTriggerRejectsBadNotifications(t *testing.T) {
	for _, in := range []string{`not json`, `{"bucket": "b"}`} {
		cmd := commands.NewAnalysisTriggerToGCSObject("trigger")
		c := newContext(in)
		cmd.Execute(c)
		assert.Error(t, c.Err(), in)
	}
}

func TestRejectBinary(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "frame.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o644))
	doc := filepath.Join(dir, "call.json")
	require.NoError(t, os.WriteFile(doc, []byte(test.GetTestAnalysisDocument()), 0o644))

	assert.ErrorIs(t, commands.RejectBinary(png), model.ErrMalformedInput)
	assert.NoError(t, commands.RejectBinary(doc))
}

func TestTempFileReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "call.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	c := newContext(path)
	commands.NewTempFileReader("read").Execute(c)

	require.NoError(t, c.Err())
	assert.Equal(t, []byte("{}"), c.Get(cor.CtxOut))

	missing := newContext(filepath.Join(t.TempDir(), "missing.json"))
	commands.NewTempFileReader("read").Execute(missing)
	assert.Error(t, missing.Err())
}

func TestAnalysisJsonToStruct(t *testing.T) {
	c := newContext([]byte(test.GetTestAnalysisDocument()))
	commands.NewAnalysisJsonToStruct("parse").Execute(c)

	require.NoError(t, c.Err())
	doc := c.Get(cor.CtxOut).(*model.AnalysisDocument)
	assert.Len(t, doc.Frames, 6)
	assert.Len(t, doc.AudioTranscription, 2)
	assert.Same(t, doc, c.Get(commands.DocumentParam))

	wrongType := newContext(42)
	commands.NewAnalysisJsonToStruct("parse").Execute(wrongType)
	assert.ErrorIs(t, wrongType.Err(), model.ErrMalformedInput)
}

func TestPromptRendererUsesDefaultLocale(t *testing.T) {
	opts := fusion.DefaultOptions()
	opts.DefaultLocale = "tr"
	timeline := model.Timeline{Events: []model.FusedEvent{{
		Timestamp:          1,
		AudioTranscription: "Merhaba",
		Detections:         model.NewOrderedSet(),
		OnScreenTexts:      model.NewOrderedSet(),
	}}}

	c := newContext(&timeline)
	commands.NewPromptRenderer("render", opts).Execute(c)

	require.NoError(t, c.Err())
	assert.Equal(t, fusion.Render(timeline, "tr"), c.Get(cor.CtxOut))
	assert.Equal(t, "tr", c.Get(commands.LocaleParam))
}

func TestCallAnalysisJsonToStruct(t *testing.T) {
	c := newContext(test.GetTestModelAnswer())
	c.Add(cloud.GCSObjectParam, &cloud.GCSObject{Bucket: "in", Name: "calls/a.json"})
	c.Add(commands.SourceParam, "gs://in/calls/a.json")
	c.Add(commands.PromptParam, "At second 1.")
	c.Add(commands.PromptUrlParam, "gs://prompts/calls/a.prompt.txt")
	c.Add(commands.LocaleParam, "en")
	c.Add(commands.StrategyParam, fusion.StrategyFrameGrouped)

	commands.NewCallAnalysisJsonToStruct("convert").Execute(c)

	require.NoError(t, c.Err())
	analysis := c.Get(commands.AnalysisParam).(*model.CallAnalysis)
	assert.Equal(t, model.NewCallAnalysis("gs://in/calls/a.json").Id, analysis.Id)
	assert.Equal(t, "https://storage.mtls.cloud.google.com/in/calls/a.json", analysis.SourceUrl)
	assert.Equal(t, "gs://prompts/calls/a.prompt.txt", analysis.PromptUrl)
	assert.Equal(t, "At second 1.", analysis.Prompt)
	assert.Equal(t, fusion.StrategyFrameGrouped, analysis.Strategy)
	assert.Equal(t, "Find out where the order is", analysis.CustomerIntent)
}

func TestCallAnalysisJsonToStructRejectsSchemaViolations(t *testing.T) {
	c := newContext(`{"summary": "x", "sentiment": "angry"}`)
	commands.NewCallAnalysisJsonToStruct("convert").Execute(c)

	assert.ErrorIs(t, c.Err(), cloud.ErrSchemaViolation)
	assert.Nil(t, c.Get(commands.AnalysisParam))
}

func TestBatchPromptBuilderKeepsOrder(t *testing.T) {
	opts := fusion.DefaultOptions()
	good := json.RawMessage(test.GetTestAnalysisDocument())
	docs := []json.RawMessage{good, json.RawMessage(`{"frames": 1}`), good, good}

	c := newContext(docs)
	commands.NewBatchPromptBuilder("batch", opts, 3).Execute(c)

	results := c.Get(cor.CtxOut).([]*commands.PromptResult)
	require.Len(t, results, len(docs))

	parsed, err := model.ParseAnalysisDocument(good)
	require.NoError(t, err)
	want, err := fusion.BuildPrompt(parsed, "", opts)
	require.NoError(t, err)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		if i == 1 {
			assert.ErrorIs(t, r.Err, model.ErrMalformedInput)
			assert.NotEmpty(t, r.Error)
			continue
		}
		assert.NoError(t, r.Err)
		assert.Equal(t, want, r.Prompt)
	}
	assert.NoError(t, c.Err())
}

func TestBatchPromptBuilderRejectsUnknownStrategy(t *testing.T) {
	c := newContext([]json.RawMessage{})
	c.Add(commands.StrategyParam, "nope")
	commands.NewBatchPromptBuilder("batch", fusion.DefaultOptions(), 2).Execute(c)

	assert.Error(t, c.Err())
}
