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

// This file contains helpers shared across the cloud package: hierarchical
// configuration loading and a retrying wrapper around any TextGenerator that
// records token usage.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel/metric"
)

// Cloud Constants.
const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The directory holding the config files.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The runtime context (e.g., "local", "test", "prod").
	MaxRetries          = 3                   // The maximum number of times to retry a failed model call.
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime-specific configuration paths.
func ConfigFiles() (base string, env string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}
	base = prefix + ConfigFileBaseName + ConfigFileExtension
	env = prefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	return base, env
}

// LoadConfig decodes the base configuration file and then overlays the
// runtime-specific file on top of it. Values in the runtime file win. Missing
// files are skipped; a file that fails to decode is an error.
func LoadConfig(baseConfig any) error {
	baseConfigFileName, envConfigFileName := ConfigFiles()
	slog.Debug("loading configuration", "base", baseConfigFileName, "environment", envConfigFileName)

	for _, name := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(name) {
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", name, err)
		}
	}
	return nil
}

// GenerateWithRetry sends the prompt to the generator, retrying up to
// MaxRetries times, and records token usage on success. Markdown code fences
// around a JSON answer are stripped.
func GenerateWithRetry(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	retryCounter metric.Int64Counter,
	tryCount int,
	generator TextGenerator,
	prompt string) (string, error) {
	resp, err := generator.GenerateText(ctx, prompt)
	if err != nil {
		if tryCount < MaxRetries && ctx.Err() == nil {
			retryCounter.Add(ctx, 1)
			return GenerateWithRetry(ctx, inputTokenCounter, outputTokenCounter, retryCounter, tryCount+1, generator, prompt)
		}
		return "", err
	}
	inputTokenCounter.Add(ctx, resp.InputTokens)
	outputTokenCounter.Add(ctx, resp.OutputTokens)

	return StripCodeFence(resp.Text), nil
}

// StripCodeFence removes a surrounding ```json ... ``` block, if present.
func StripCodeFence(in string) string {
	out := strings.TrimSpace(in)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out)
}
