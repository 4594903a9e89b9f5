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

// Package test provides shared fixtures for the test suites: the test
// configuration and sample payloads.
package test

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-call-analysis/internal/cloud"
)

var (
	configOnce sync.Once
	config     *cloud.Config
)

// HandleErr fails the test when err is set.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// ConfigDir returns the absolute path of the repository's configs directory,
// independent of the working directory of the test binary.
func ConfigDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "configs")
}

// SetupOS points the configuration loader at configs/.env.test.toml.
func SetupOS() (err error) {
	if err = os.Setenv(cloud.EnvConfigFilePrefix, ConfigDir()); err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads the test configuration once and returns the cached copy.
func GetConfig() *cloud.Config {
	configOnce.Do(func() {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		c := cloud.NewConfig()
		if err := cloud.LoadConfig(c); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		config = c
	})
	return config
}

// GetTestAnalysisMessageText is a Cloud Storage notification for an uploaded
// analysis document.
func GetTestAnalysisMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "call_analysis_input/calls/call-0001.json/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/call_analysis_input/o/calls%2Fcall-0001.json",
  "name": "calls/call-0001.json",
  "bucket": "call_analysis_input",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "application/json",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "size": "1024",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/call_analysis_input/o/calls%2Fcall-0001.json?generation=1728615848664286&alt=media",
  "metadata": { "touch": "1" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}
`
}

// GetTestAnalysisDocument is a small analysis document: a customer greeting,
// a complaint, and a persistent on-screen banner.
func GetTestAnalysisDocument() string {
	return `{
  "frames": [
    {"timestamp": 0.5, "detections": ["person"], "texts": ["ACME Support"]},
    {"timestamp": 1.0, "detections": ["person"], "texts": ["ACME Support"]},
    {"timestamp": 2.0, "detections": ["person", "laptop"], "texts": ["ACME Support"]},
    {"timestamp": 3.0, "detections": ["person", "laptop"], "texts": ["ACME Support"]},
    {"timestamp": 4.0, "detections": ["laptop"], "texts": ["ACME Support"]},
    {"timestamp": 5.0, "detections": ["phone"], "texts": ["ACME Support", "Order #1234"]}
  ],
  "audioTranscription": [
    {"start": 0.0, "end": 1.5, "text": "Hello, how can I help?"},
    {"start": 3.5, "end": 4.5, "text": "My order has not arrived."}
  ]
}`
}

// GetTestModelAnswer is a schema-valid answer from the language model.
func GetTestModelAnswer() string {
	return `{
  "summary": "The customer reported that order 1234 has not arrived.",
  "customer_intent": "Find out where the order is",
  "agent_actions": ["Looked up the order"],
  "sentiment": "negative",
  "resolution_status": "unresolved",
  "topics": ["delivery"],
  "action_items": [{"owner": "agent", "description": "Open a courier investigation"}]
}`
}
