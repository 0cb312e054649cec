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

package cor_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
)

// appendCommand appends its suffix to the piped string input.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	fail   bool
	ran    bool
}

func newAppendCommand(name, suffix string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix}
}

func (c *appendCommand) Execute(ctx cor.Context) {
	c.ran = true
	if c.fail {
		ctx.AddError(c.GetName(), errors.New("simulated failure"))
		return
	}
	in := ctx.Get(c.GetInputParam()).(string)
	ctx.Add(c.GetOutputParam(), in+c.suffix)
}

func TestChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("test_pipe")
	chain.AddCommand(newAppendCommand("first", "-a")).
		AddCommand(newAppendCommand("second", "-b"))

	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, "seed")
	chain.Execute(ctx)

	require.False(t, ctx.HasErrors())
	assert.Equal(t, "seed-a-b", ctx.Get(cor.CtxIn))
}

func TestChainHaltsOnError(t *testing.T) {
	failing := newAppendCommand("failing", "-x")
	failing.fail = true
	tail := newAppendCommand("tail", "-y")

	chain := cor.NewBaseChain("test_halt")
	chain.AddCommand(failing).AddCommand(tail)

	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, "seed")
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.False(t, tail.ran, "commands after a failure must be skipped")
}

func TestChainContinueOnFailure(t *testing.T) {
	failing := newAppendCommand("failing", "-x")
	failing.fail = true
	tail := newAppendCommand("tail", "-y")
	tail.InputParamName = "other_input"

	chain := cor.NewBaseChain("test_continue")
	chain.ContinueOnFailure(true)
	chain.AddCommand(failing).AddCommand(tail)

	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, "seed")
	ctx.Add("other_input", "alt")
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.True(t, tail.ran)
}

func TestContextConcurrentAccess(t *testing.T) {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ctx.Add("shared", n)
				_ = ctx.Get("shared")
				_ = ctx.HasErrors()
			}
		}(i)
	}
	wg.Wait()
	assert.NotNil(t, ctx.Get("shared"))
}
