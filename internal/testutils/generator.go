package testutils

import (
	"context"
	"sync"
)

// Step is one scripted generator answer. Block, when set, makes Generate wait
// until it is closed or the context ends.
type Step struct {
	Text  string
	Err   error
	Panic any
	Block chan struct{}
}

// ScriptedGenerator replays Steps in order and records every call.
// Once the script is exhausted it returns Fallback.
type ScriptedGenerator struct {
	mu       sync.Mutex
	steps    []Step
	Fallback Step
	calls    []map[string]string
}

// NewScriptedGenerator creates a generator that replays steps.
func NewScriptedGenerator(steps ...Step) *ScriptedGenerator {
	return &ScriptedGenerator{steps: steps}
}

// Texts is shorthand for a script of successful answers.
func Texts(texts ...string) *ScriptedGenerator {
	steps := make([]Step, len(texts))
	for i, t := range texts {
		steps[i] = Step{Text: t}
	}
	return NewScriptedGenerator(steps...)
}

// Push appends steps to the script.
func (g *ScriptedGenerator) Push(steps ...Step) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.steps = append(g.steps, steps...)
}

// Generate implements nuancetypes.Generator.
func (g *ScriptedGenerator) Generate(ctx context.Context, vars map[string]string) (string, error) {
	g.mu.Lock()
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	g.calls = append(g.calls, copied)
	step := g.Fallback
	if len(g.steps) > 0 {
		step = g.steps[0]
		g.steps = g.steps[1:]
	}
	g.mu.Unlock()

	if step.Block != nil {
		select {
		case <-step.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if step.Panic != nil {
		panic(step.Panic)
	}
	return step.Text, step.Err
}

// CallCount returns the number of Generate calls.
func (g *ScriptedGenerator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// Calls returns the vars of every call in order.
func (g *ScriptedGenerator) Calls() []map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]map[string]string(nil), g.calls...)
}

// LastCall returns the vars of the most recent call, or nil.
func (g *ScriptedGenerator) LastCall() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return nil
	}
	return g.calls[len(g.calls)-1]
}
