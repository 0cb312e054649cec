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

// Package cor implements a chain-of-responsibility pipeline used by the
// generation and library workflows. A workflow is a Chain of Commands
// sharing one Context; each command reads its input from the context,
// does one unit of work (build a prompt, start a video job, upload an
// artifact), and writes its output back for the next command.
//
// Interfaces:
//   - Context: The shared state bag for one workflow execution. Carries
//     data, accumulated errors, and the Go context.
//   - Command: An atomic unit of work with OTel instrumentation.
//   - Chain: An ordered sequence of commands; itself a Command so chains
//     compose.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the reserved keys the chain uses to pipe one
// command's primary output into the next command's primary input.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state passed through a chain. Implementations
// must be safe for use from multiple goroutines: commands fan work out
// (voiceover synthesis runs beside the scene loop) and report back into
// the same context.
type Context interface {
	// SetContext / GetContext manage the standard Go context used for
	// cancellation and trace propagation.
	SetContext(context context.Context)
	GetContext() context.Context

	// Add stores a value under key, returning the Context for chaining.
	Add(key string, value interface{}) Context

	// Get returns the value for key, or nil.
	Get(key string) interface{}

	// Remove deletes key from the context.
	Remove(key string)

	// AddError records a command failure, keyed by the command name.
	AddError(key string, err error)
	GetErrors() map[string]error
	HasErrors() bool
}

// Executable is anything with a single execution entry point.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic, reusable unit of work. A command reports failure
// by adding an error to the context rather than returning one, which
// lets the chain decide whether to halt or continue.
type Command interface {
	Executable

	// GetName identifies the command in logs, spans, and metric names.
	GetName() string

	// GetInputParam and GetOutputParam name the context keys for the
	// command's primary input and output. Defaults of CtxIn/CtxOut opt
	// the command into the chain's piping.
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered command sequence. Being a Command itself, a chain
// nests inside another chain.
type Chain interface {
	Command

	// ContinueOnFailure controls whether later commands still run after
	// an earlier one records an error. Default is to halt.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
