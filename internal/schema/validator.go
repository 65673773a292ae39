package schema

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Validator validates instances against one compiled schema.
type Validator struct {
	id       string
	doc      map[string]any
	compiled *jsonschema.Schema
	scope    *callScope
}

// ID returns the schema's $id.
func (v *Validator) ID() string {
	return v.id
}

// Validate fills in declared defaults on doc (in place, when doc is an
// object) and validates the result. It returns a *ValidationError when the
// document does not conform, or a wrapped I/O error when a predicate probe
// could not be completed.
func (v *Validator) Validate(ctx context.Context, doc any) error {
	applyDefaults(v.doc, doc)

	v.scope.begin(ctx)
	err := v.compiled.Validate(doc)
	probeErr := v.scope.end()

	if probeErr != nil {
		return fmt.Errorf("validating against %s: %w", v.id, probeErr)
	}
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("unexpected validation error type: %w", err)
	}
	return &ValidationError{SchemaID: v.id, Issues: extractIssues(ve)}
}

// Defaults returns a new document holding only the schema's declared defaults.
func (v *Validator) Defaults() map[string]any {
	doc := map[string]any{}
	applyDefaults(v.doc, doc)
	return doc
}

// Issue is a single validation failure.
type Issue struct {
	Path    string // Instance location (e.g., "/projectDir", "/_/0"); empty for the root
	Message string // Human-readable reason
	Keyword string // Schema keyword that failed
	Schema  string // Schema location of the failing keyword (e.g., "/anyOf/1/properties/_/items")
}

// Field returns the path with its leading slash removed, as shown to users.
func (i Issue) Field() string {
	return strings.Replace(i.Path, "/", "", 1)
}

func (i Issue) String() string {
	return fmt.Sprintf("%q %s", i.Field(), i.Message)
}

// ValidationError reports every issue found in one document, in schema order.
type ValidationError struct {
	SchemaID string
	Issues   []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s: validation failed", e.SchemaID)
	}
	return fmt.Sprintf("%s: %s", e.SchemaID, e.Issues[0])
}

// FirstIssue picks the issue to show a user. When a schema is a union of
// shapes told apart by a discriminator field, a failure on the discriminator
// means its branch did not apply, so that branch's issues are passed over
// along with the discriminator's own. Issues on a named field win over
// root-level ones. ok is false when every issue is on the discriminator.
func FirstIssue(issues []Issue, discriminator string) (Issue, bool) {
	var rejected []string
	for _, is := range issues {
		if is.Path != discriminator {
			continue
		}
		if branch := unionBranch(is.Schema); branch != "" {
			rejected = append(rejected, branch)
		}
	}

	var relevant []Issue
	for _, is := range issues {
		if is.Path != discriminator && !inBranch(is.Schema, rejected) {
			relevant = append(relevant, is)
		}
	}
	if len(relevant) == 0 {
		// Every branch was rejected; fall back to the other branches' issues.
		for _, is := range issues {
			if is.Path != discriminator {
				relevant = append(relevant, is)
			}
		}
	}

	for _, is := range relevant {
		if is.Path != "" {
			return is, true
		}
	}
	if len(relevant) > 0 {
		return relevant[0], true
	}
	return Issue{}, false
}

var branchPattern = regexp.MustCompile(`^(.*/(?:anyOf|oneOf)/\d+)(?:/|$)`)

// unionBranch returns the innermost anyOf/oneOf branch containing a schema
// location, or "" when the location is not inside a union.
func unionBranch(loc string) string {
	m := branchPattern.FindStringSubmatch(loc)
	if m == nil {
		return ""
	}
	return m[1]
}

func inBranch(loc string, branches []string) bool {
	for _, b := range branches {
		if loc == b || strings.HasPrefix(loc, b+"/") {
			return true
		}
	}
	return false
}

// extractIssues walks the ValidationError tree and returns leaf-level issues.
func extractIssues(ve *jsonschema.ValidationError) []Issue {
	var issues []Issue
	collectIssues(ve, &issues)

	if len(issues) == 0 {
		return []Issue{{Message: ve.Error()}}
	}
	return deduplicateIssues(issues)
}

// collectIssues recursively walks the error tree to find leaf errors.
func collectIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) == 0 {
		path := ""
		if len(ve.InstanceLocation) > 0 {
			path = "/" + strings.Join(ve.InstanceLocation, "/")
		}

		keyword := ""
		msg := ""
		if ve.ErrorKind != nil {
			if kwPath := ve.ErrorKind.KeywordPath(); len(kwPath) > 0 {
				keyword = kwPath[len(kwPath)-1]
			}
			msg = ve.ErrorKind.LocalizedString(printer)
		}

		// Skip generic container errors that aren't informative.
		if keyword == "anyOf" || keyword == "oneOf" || keyword == "allOf" || keyword == "$ref" || keyword == "" {
			return
		}

		_, loc, _ := strings.Cut(ve.SchemaURL, "#")
		*issues = append(*issues, Issue{
			Path:    path,
			Message: msg,
			Keyword: keyword,
			Schema:  loc,
		})
		return
	}

	for _, cause := range ve.Causes {
		collectIssues(cause, issues)
	}
}

// deduplicateIssues removes issues reported twice by the same keyword.
func deduplicateIssues(issues []Issue) []Issue {
	seen := make(map[string]bool)
	var result []Issue
	for _, issue := range issues {
		key := issue.Schema + "|" + issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	return result
}
