package schema

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/agentx-labs/projinit/internal/predicate"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/message"
)

const vocabURL = "https://schemas.projinit.dev/meta/predicates"

// callScope carries the context of the Validate call in flight so that
// keyword extensions, which jsonschema invokes without a context, can pass it
// to predicates. Validate calls on one Validator are serialized by mu.
type callScope struct {
	mu       sync.Mutex
	ctx      context.Context
	probeErr error
}

func (s *callScope) begin(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.probeErr = nil
}

func (s *callScope) end() error {
	err := s.probeErr
	s.ctx = nil
	s.probeErr = nil
	s.mu.Unlock()
	return err
}

func (s *callScope) record(err error) {
	if s.probeErr == nil {
		s.probeErr = err
	}
}

// predicateVocab builds a vocabulary exposing every predicate in reg as a
// keyword. Keyword values are passed through to the predicate unchanged.
func predicateVocab(reg *predicate.Registry, scope *callScope) (*jsonschema.Vocabulary, error) {
	names := reg.Names()

	props := make([]string, 0, len(names))
	for _, name := range names {
		props = append(props, fmt.Sprintf("%q: {}", name))
	}
	meta, err := jsonschema.UnmarshalJSON(strings.NewReader(`{"properties": {` + strings.Join(props, ",") + `}}`))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling predicate meta-schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(vocabURL, meta); err != nil {
		return nil, fmt.Errorf("adding predicate meta-schema: %w", err)
	}
	metaSchema, err := c.Compile(vocabURL)
	if err != nil {
		return nil, fmt.Errorf("compiling predicate meta-schema: %w", err)
	}

	return &jsonschema.Vocabulary{
		URL:    vocabURL,
		Schema: metaSchema,
		Compile: func(_ *jsonschema.CompilerContext, obj map[string]any) (jsonschema.SchemaExt, error) {
			var checks []keywordCheck
			for _, name := range names {
				expected, ok := obj[name]
				if !ok {
					continue
				}
				fn, _ := reg.Lookup(name)
				checks = append(checks, keywordCheck{keyword: name, expected: expected, fn: fn})
			}
			if len(checks) == 0 {
				return nil, nil
			}
			return &predicateExt{scope: scope, checks: checks}, nil
		},
	}, nil
}

type keywordCheck struct {
	keyword  string
	expected any
	fn       predicate.Func
}

// predicateExt evaluates predicate keywords against string instances.
// Non-string instances are left to the type keyword.
type predicateExt struct {
	scope  *callScope
	checks []keywordCheck
}

func (e *predicateExt) Validate(ctx *jsonschema.ValidatorContext, v any) {
	s, ok := v.(string)
	if !ok {
		return
	}
	callCtx := e.scope.ctx
	if callCtx == nil {
		callCtx = context.Background()
	}
	for _, chk := range e.checks {
		passed, err := chk.fn(callCtx, chk.expected, s)
		if err != nil {
			e.scope.record(err)
		}
		if err != nil || !passed {
			ctx.AddError(&PredicateFailed{Keyword: chk.keyword, Expected: chk.expected, Value: s})
		}
	}
}

// PredicateFailed is the jsonschema error kind for a failed predicate keyword.
type PredicateFailed struct {
	Keyword  string
	Expected any
	Value    string
}

func (k *PredicateFailed) KeywordPath() []string {
	return []string{k.Keyword}
}

func (k *PredicateFailed) LocalizedString(p *message.Printer) string {
	want, _ := k.Expected.(bool)
	switch k.Keyword {
	case predicate.KeywordExistsFile:
		if want {
			return p.Sprintf("must be an existing file")
		}
		return p.Sprintf("must not exist")
	case predicate.KeywordExistsDir:
		if want {
			return p.Sprintf("must be an existing directory")
		}
		return p.Sprintf("must not exist")
	case predicate.KeywordExistsTemplate:
		return p.Sprintf("template %q not found", k.Value)
	default:
		return p.Sprintf("must pass %q keyword validation", k.Keyword)
	}
}
