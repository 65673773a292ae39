// Package cli defines the Cobra command tree for the projinit CLI. The root
// command validates the invocation and hands it to the template plugin; the
// remaining files each register one subcommand (templates, config, version).
package cli
