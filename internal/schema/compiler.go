package schema

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/agentx-labs/projinit/internal/predicate"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const resourceBase = "https://schemas.projinit.dev/"

// Compiler turns schema documents into Validators and caches them by $id.
type Compiler struct {
	predicates *predicate.Registry

	mu    sync.Mutex
	cache map[string]*Validator
}

// NewCompiler creates a Compiler whose schemas may use every keyword in preds.
// A nil registry means no custom keywords.
func NewCompiler(preds *predicate.Registry) *Compiler {
	if preds == nil {
		preds = predicate.NewRegistry()
	}
	return &Compiler{
		predicates: preds,
		cache:      make(map[string]*Validator),
	}
}

// Lookup returns the validator previously compiled for id.
func (c *Compiler) Lookup(id string) (*Validator, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache[id]
	return v, ok
}

// Compile parses a JSON schema document and returns its validator. The
// document must carry a non-empty $id; a second Compile with the same $id
// returns the cached validator without recompiling.
func (c *Compiler) Compile(raw []byte) (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling schema JSON: %w", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema must be a JSON object, got %T", doc)
	}
	id, _ := obj["$id"].(string)
	if id == "" {
		return nil, fmt.Errorf("schema is missing $id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.cache[id]; ok {
		return v, nil
	}

	v, err := c.build(id, obj)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %q: %w", id, err)
	}
	c.cache[id] = v
	return v, nil
}

// MustCompile is like Compile but panics on error. It is meant for schemas
// embedded in the binary.
func (c *Compiler) MustCompile(raw []byte) *Validator {
	v, err := c.Compile(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *Compiler) build(id string, obj map[string]any) (*Validator, error) {
	scope := &callScope{}
	vocab, err := predicateVocab(c.predicates, scope)
	if err != nil {
		return nil, err
	}

	// $id is the cache key only; relative ids would otherwise be resolved
	// against the resource URL.
	resource := make(map[string]any, len(obj))
	for k, v := range obj {
		if k == "$id" || k == "$async" {
			continue
		}
		resource[k] = v
	}

	url := resourceBase + id + ".schema.json"
	jc := jsonschema.NewCompiler()
	jc.RegisterVocabulary(vocab)
	jc.AssertVocabs()
	if err := jc.AddResource(url, resource); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := jc.Compile(url)
	if err != nil {
		return nil, err
	}

	return &Validator{
		id:       id,
		doc:      obj,
		compiled: compiled,
		scope:    scope,
	}, nil
}
