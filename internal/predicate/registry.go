package predicate

import (
	"context"
	"fmt"
	"sort"
)

// Keyword names used in schema documents.
const (
	KeywordExistsFile     = "existsFile"
	KeywordExistsDir      = "existsDir"
	KeywordExistsTemplate = "existsTemplate"
)

// Func is a named check. expected is the keyword value taken verbatim from the
// schema; candidate is the instance string. A non-nil error means the probe
// itself failed and the answer is unknown.
type Func func(ctx context.Context, expected any, candidate string) (bool, error)

// Registry maps keyword names to predicates.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register adds fn under name, replacing any previous entry.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Lookup returns the predicate registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered keyword names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns a registry with the filesystem predicates and an
// existsTemplate predicate backed by prober.
func Default(prober *TemplateProber) *Registry {
	r := NewRegistry()
	r.Register(KeywordExistsFile, boolPredicate(KeywordExistsFile, FileExists))
	r.Register(KeywordExistsDir, boolPredicate(KeywordExistsDir, DirExists))
	r.Register(KeywordExistsTemplate, func(ctx context.Context, _ any, name string) (bool, error) {
		return prober.Exists(ctx, name), nil
	})
	return r
}

// boolPredicate adapts a polarity check to Func, rejecting non-boolean
// keyword values.
func boolPredicate(keyword string, check func(ctx context.Context, expected bool, path string) (bool, error)) Func {
	return func(ctx context.Context, expected any, candidate string) (bool, error) {
		want, ok := expected.(bool)
		if !ok {
			return false, fmt.Errorf("%s: keyword value must be a boolean, got %T", keyword, expected)
		}
		return check(ctx, want, candidate)
	}
}
