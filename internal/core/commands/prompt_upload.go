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
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// PromptUpload writes the rendered prompt to the prompt bucket and passes
// the prompt through unchanged. The object is named after the source object
// when there is one, and after a random id otherwise; its gs:// address is
// stored under PromptUrlParam.
type PromptUpload struct {
	cor.BaseCommand
	client *storage.Client
	bucket string
}

func NewPromptUpload(name string, client *storage.Client, bucket string) *PromptUpload {
	return &PromptUpload{BaseCommand: *cor.NewBaseCommand(name), client: client, bucket: bucket}
}

func (c *PromptUpload) Execute(context cor.Context) {
	prompt, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, fmt.Errorf("%w: expected a rendered prompt", model.ErrMalformedInput))
		return
	}

	objectName := uuid.NewString() + cloud.PromptObjectSuffix
	if original, ok := context.Get(cloud.GCSObjectParam).(*cloud.GCSObject); ok && original != nil {
		objectName = cloud.PromptObjectName(original.Name)
	}

	obj := c.client.Bucket(c.bucket).Object(objectName)
	writer := obj.NewWriter(context.GetContext())
	writer.ContentType = "text/plain; charset=utf-8"

	if written, err := io.Copy(writer, strings.NewReader(prompt)); err != nil {
		_ = writer.Close()
		c.Fail(context, fmt.Errorf("failed to upload prompt after %d bytes: %w", written, err))
		return
	}
	// Close commits the object; its error is the upload's error.
	if err := writer.Close(); err != nil {
		c.Fail(context, fmt.Errorf("failed to commit prompt gs://%s/%s: %w", c.bucket, objectName, err))
		return
	}

	url := fmt.Sprintf("gs://%s/%s", c.bucket, obj.ObjectName())
	slog.InfoContext(context.GetContext(), "uploaded prompt", "object", url)
	context.Add(PromptUrlParam, url)
	c.Succeed(context, prompt)
}
