// Package schema compiles JSON Schema documents into reusable validators.
//
// Validators apply the schema's declared defaults to the instance in place
// before validating it, and understand the custom keywords registered in a
// predicate.Registry (existsFile, existsDir, existsTemplate). Compiled
// validators are cached by the schema's $id, so compiling the same document
// twice returns the first validator.
package schema
