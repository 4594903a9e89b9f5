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
	"os"

	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// GCSToTempFile downloads the input GCSObject into a temporary file and
// outputs its path. The file is registered with the context for removal.
// Objects whose content sniffs as a known binary format (images, audio,
// video, archives) are rejected, since only JSON analysis documents are
// accepted.
type GCSToTempFile struct {
	cor.BaseCommand
	client         *storage.Client
	tempFilePrefix string
}

func NewGCSToTempFile(name string, client *storage.Client, tempFilePrefix string) *GCSToTempFile {
	return &GCSToTempFile{
		BaseCommand:    *cor.NewBaseCommand(name),
		client:         client,
		tempFilePrefix: tempFilePrefix,
	}
}

func (c *GCSToTempFile) Execute(context cor.Context) {
	msg, ok := context.Get(c.GetInputParam()).(*cloud.GCSObject)
	if !ok {
		c.Fail(context, fmt.Errorf("%w: expected a GCS object", model.ErrMalformedInput))
		return
	}

	reader, err := c.client.Bucket(msg.Bucket).Object(msg.Name).NewReader(context.GetContext())
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to create GCS reader for %s: %w", msg.URI(), err))
		return
	}
	defer func(reader *storage.Reader) {
		if err := reader.Close(); err != nil {
			slog.Warn("failed to close GCS reader", "object", msg.URI(), "error", err)
		}
	}(reader)

	tempFile, err := os.CreateTemp("", c.tempFilePrefix)
	if err != nil {
		c.Fail(context, fmt.Errorf("could not create temp file: %w", err))
		return
	}
	context.AddTempFile(tempFile.Name())

	written, err := io.Copy(tempFile, reader)
	_ = tempFile.Close()
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to copy %s to local file after %d bytes: %w", msg.URI(), written, err))
		return
	}

	if err := RejectBinary(tempFile.Name()); err != nil {
		c.Fail(context, err)
		return
	}

	slog.InfoContext(context.GetContext(), "downloaded analysis document", "object", msg.URI(), "file", tempFile.Name(), "bytes", written)
	c.Succeed(context, tempFile.Name())
}

// RejectBinary returns model.ErrMalformedInput when the file's magic bytes
// identify a known binary type.
func RejectBinary(path string) error {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	if kind != filetype.Unknown {
		return fmt.Errorf("%w: got %s content where a JSON document was expected", model.ErrMalformedInput, kind.MIME.Value)
	}
	return nil
}

// TempFileReader reads the file at the input path and outputs its bytes.
type TempFileReader struct {
	cor.BaseCommand
}

func NewTempFileReader(name string) *TempFileReader {
	return &TempFileReader{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *TempFileReader) Execute(context cor.Context) {
	path, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, fmt.Errorf("%w: expected a file path", model.ErrMalformedInput))
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to read %s: %w", path, err))
		return
	}
	c.Succeed(context, data)
}
