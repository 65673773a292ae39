// Package request validates a command-line invocation before any plugin runs.
//
// An invocation is either an export (write a template's default profile to a
// new file) or an initialization (read an existing profile). Both shapes are
// one schema told apart by the export flag, so the errors of the branch that
// did not apply are filtered out before anything is shown to the user.
package request

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/agentx-labs/projinit/internal/branding"
	"github.com/agentx-labs/projinit/internal/schema"
)

//go:embed init.schema.json
var schemaJSON []byte

// Discriminator is the instance path of the export flag.
const Discriminator = "/export"

// Request is a validated invocation.
type Request struct {
	Export   bool     `json:"export"`
	Template string   `json:"template"`
	Args     []string `json:"_"`
}

// Path returns the single positional path.
func (r *Request) Path() string {
	return r.Args[0]
}

// Document builds the raw invocation document from parsed flags. The export
// flag is always present; template only when it was given.
func Document(export bool, template string, templateSet bool, args []string) map[string]any {
	positional := make([]any, len(args))
	for i, a := range args {
		positional[i] = a
	}
	doc := map[string]any{
		"_":      positional,
		"export": export,
	}
	if templateSet {
		doc["template"] = template
	}
	return doc
}

// Parse validates doc and decodes it. Invalid documents yield a
// *schema.ValidationError.
func Parse(ctx context.Context, c *schema.Compiler, doc map[string]any) (*Request, error) {
	v := c.MustCompile(schemaJSON)
	if err := v.Validate(ctx, doc); err != nil {
		return nil, err
	}
	var req Request
	if err := schema.Decode(doc, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ReportInvalid prints usage examples for both modes, the rejected input and
// the most relevant issue.
func ReportInvalid(w io.Writer, doc map[string]any, ve *schema.ValidationError) {
	name := branding.CLIName()
	fmt.Fprintf(w, "export  profiles   example: %s --template=alephjs --export ./alephjsProject/metaway.json\n", name)
	fmt.Fprintf(w, "project initialize example: %s --template=alephjs ./alephjsProject/metaway.json\n\n", name)

	input, err := json.Marshal(doc)
	if err != nil {
		input = []byte(fmt.Sprint(doc))
	}
	fmt.Fprintf(w, "input: %s\n", input)
	fmt.Fprintf(w, "error: %s\n", Message(ve))
}

// Message returns the issue to show for ve, skipping discriminator issues.
func Message(ve *schema.ValidationError) string {
	if is, ok := schema.FirstIssue(ve.Issues, Discriminator); ok {
		return is.String()
	}
	if len(ve.Issues) > 0 {
		return ve.Issues[0].String()
	}
	return ve.Error()
}

// AsValidationError reports whether err is a validation failure.
func AsValidationError(err error) (*schema.ValidationError, bool) {
	var ve *schema.ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
