// Package expressions evaluates JMESPath paths against decoded JSON documents.
package expressions

import (
	"fmt"
	"sync"

	"github.com/jmespath/go-jmespath"
)

// Evaluator compiles JMESPath expressions once and reuses them
type Evaluator struct {
	cache map[string]*jmespath.JMESPath
	mu    sync.RWMutex
}

// NewEvaluator creates a new expression evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*jmespath.JMESPath),
	}
}

// Evaluate evaluates a JMESPath expression against data. A path through a
// missing or non-object parent yields nil rather than an error.
func (e *Evaluator) Evaluate(expression string, data any) (any, error) {
	compiled, err := e.getOrCompile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expression, err)
	}

	result, err := compiled.Search(data)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression %q: %w", expression, err)
	}

	return result, nil
}

// Lookup evaluates every expression against data, in order, and returns the
// results. Expressions that fail to evaluate contribute nil.
func (e *Evaluator) Lookup(data any, expressions ...string) []any {
	results := make([]any, len(expressions))
	for i, expr := range expressions {
		v, err := e.Evaluate(expr, data)
		if err != nil {
			continue
		}
		results[i] = v
	}
	return results
}

// EvaluateMap evaluates an expression and returns the result as a map. Non-map
// results yield nil.
func (e *Evaluator) EvaluateMap(expression string, data any) (map[string]any, error) {
	result, err := e.Evaluate(expression, data)
	if err != nil {
		return nil, err
	}

	m, _ := result.(map[string]any)
	return m, nil
}

// Validate checks if an expression is valid
func (e *Evaluator) Validate(expression string) error {
	_, err := e.getOrCompile(expression)
	return err
}

// getOrCompile retrieves a compiled expression from cache or compiles it
func (e *Evaluator) getOrCompile(expression string) (*jmespath.JMESPath, error) {
	e.mu.RLock()
	if compiled, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return compiled, nil
	}
	e.mu.RUnlock()

	compiled, err := jmespath.Compile(expression)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = compiled
	e.mu.Unlock()

	return compiled, nil
}
