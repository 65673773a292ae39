// Package plugin defines the boundary between the command line and the
// template-specific initializers. Each template is a compiled-in Plugin
// registered by name; the CLI resolves the --template flag through a
// Registry and calls one of the two plugin operations.
package plugin
