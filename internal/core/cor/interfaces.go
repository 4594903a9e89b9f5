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

// Package cor (Chain of Responsibility) provides the building blocks used to
// assemble the prompt and analysis workflows. A workflow is a Chain of
// Commands sharing one Context; each Command reads its input from the
// Context, does one thing and writes its output back.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain uses to pipe the output of one
// command into the input of the next.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the property bag shared by every command of one workflow run.
// A Context belongs to a single run and is not safe for concurrent use.
type Context interface {
	// SetContext sets the Go context carrying cancellation and the active span.
	SetContext(context context.Context)
	GetContext() context.Context

	Add(key string, value any) Context
	Get(key string) any
	Remove(key string)

	// AddError records a failure, keyed by the name of the failing command.
	AddError(key string, err error)
	GetErrors() map[string]error
	HasErrors() bool
	// Err joins every recorded error, ordered by key, or returns nil.
	Err() error

	// AddTempFile registers a file to be removed by Close.
	AddTempFile(file string)
	GetTempFiles() []string

	// Close releases resources held by the run. Callers defer it.
	Close()
}

// Executable is anything that can run against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is one step of a workflow.
type Command interface {
	Executable

	GetName() string
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable is checked by the chain before Execute is called.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain runs commands in order. A Chain is itself a Command, so chains nest.
type Chain interface {
	Command

	// ContinueOnFailure makes the chain keep going after a command records an
	// error. By default the chain stops at the first failure.
	ContinueOnFailure(bool) Chain
	AddCommand(command Command) Chain
}
