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

package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// AnalysisTriggerToGCSObject decodes a Cloud Storage notification into a
// GCSObject. The object is also stored under cloud.GCSObjectParam and its
// name under SourceParam so later commands can find it.
type AnalysisTriggerToGCSObject struct {
	cor.BaseCommand
}

func NewAnalysisTriggerToGCSObject(name string) *AnalysisTriggerToGCSObject {
	return &AnalysisTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *AnalysisTriggerToGCSObject) Execute(context cor.Context) {
	in, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, fmt.Errorf("%w: notification is not a string", model.ErrMalformedInput))
		return
	}

	var out cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &out); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}
	if out.Bucket == "" || out.Name == "" {
		c.Fail(context, fmt.Errorf("%w: notification without bucket or object name", model.ErrMalformedInput))
		return
	}
	// A rendered prompt landing in a watched bucket produces no output, so
	// the rest of the chain is skipped and the message is still acknowledged.
	if strings.HasSuffix(out.Name, cloud.PromptObjectSuffix) {
		slog.InfoContext(context.GetContext(), "ignoring prompt object", "bucket", out.Bucket, "name", out.Name)
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}
	slog.DebugContext(context.GetContext(), "analysis document notification", "object", msg.URI())

	context.Add(cloud.GCSObjectParam, msg)
	context.Add(SourceParam, msg.URI())
	c.Succeed(context, msg)
}
