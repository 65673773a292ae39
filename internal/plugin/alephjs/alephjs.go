package alephjs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/projinit/internal/driver"
	"github.com/agentx-labs/projinit/internal/merge"
	"github.com/agentx-labs/projinit/internal/orchestrate"
	"github.com/agentx-labs/projinit/internal/schema"
	"go.uber.org/zap"
)

// Name is the template name users pass to --template.
const Name = "alephjs"

const stagingPrefix = "alephjs_project"

// Plugin is the Aleph.js initializer.
type Plugin struct {
	log        *zap.Logger
	out        io.Writer
	runner     *orchestrate.Runner
	denoPath   string
	constraint string
	location   string
	tool       func(Profile) (driver.Command, error)
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the logger used by the plugin and its default runner.
func WithLogger(l *zap.Logger) Option {
	return func(p *Plugin) {
		p.log = l
	}
}

// WithOutput sets where user-facing failure messages are printed.
// Defaults to os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(p *Plugin) {
		p.out = w
	}
}

// WithRunner replaces the orchestration runner.
func WithRunner(r *orchestrate.Runner) Option {
	return func(p *Plugin) {
		p.runner = r
	}
}

// WithDenoPath sets the deno executable. Empty means look it up on PATH.
func WithDenoPath(path string) Option {
	return func(p *Plugin) {
		p.denoPath = path
	}
}

// WithCLIConstraint requires pinned initializer URLs to satisfy a semver
// constraint such as ">= 1.0.0-beta.19".
func WithCLIConstraint(c string) Option {
	return func(p *Plugin) {
		p.constraint = c
	}
}

// WithLocation overrides the URL probed for template existence.
func WithLocation(url string) Option {
	return func(p *Plugin) {
		p.location = url
	}
}

// WithToolCommand replaces how the initializer command is built. The staging
// directory is appended to the returned arguments.
func WithToolCommand(fn func(Profile) (driver.Command, error)) Option {
	return func(p *Plugin) {
		p.tool = fn
	}
}

// New returns the Aleph.js plugin.
func New(opts ...Option) *Plugin {
	p := &Plugin{
		log:      zap.NewNop(),
		out:      os.Stderr,
		location: DefaultCLI,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runner == nil {
		p.runner = orchestrate.NewRunner(p.log)
	}
	if p.tool == nil {
		p.tool = p.denoCommand
	}
	return p
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Location() string { return p.location }

// ExportDefaultConfig writes the default profile to path as indented JSON.
func (p *Plugin) ExportDefaultConfig(ctx context.Context, c *schema.Compiler, path string) (bool, error) {
	v := c.MustCompile(schemaJSON)

	doc := v.Defaults()
	if err := v.Validate(ctx, doc); err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(p.out, "%q not default profiles: %s\n", v.ID(), joinIssues(ve.Issues))
			return false, nil
		}
		return false, err
	}

	if err := schema.WriteFile(path, doc); err != nil {
		return false, err
	}
	p.log.Debug("default profile exported", zap.String("path", path))
	return true, nil
}

// Initialize validates the profile at configPath and runs the initializer.
// The project directory is resolved against the profile's own directory.
func (p *Plugin) Initialize(ctx context.Context, c *schema.Compiler, configPath string) (bool, error) {
	v := c.MustCompile(schemaJSON)

	fullPath, err := filepath.Abs(configPath)
	if err != nil {
		return false, fmt.Errorf("resolving %s: %w", configPath, err)
	}

	doc, err := schema.LoadFile(fullPath)
	if err != nil {
		if errors.Is(err, schema.ErrMalformed) {
			p.log.Debug("profile parse failed", zap.Error(err))
			fmt.Fprintf(p.out, "%q is not a valid json.\n", fullPath)
			return false, nil
		}
		return false, err
	}

	if err := v.Validate(ctx, doc); err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(p.out, "%q validate failed: %s\n", fullPath, joinIssues(ve.Issues))
			return false, nil
		}
		return false, err
	}

	var prof Profile
	if err := schema.Decode(doc, &prof); err != nil {
		return false, err
	}

	ok, pinned, err := checkVersion(prof.CLI, p.constraint)
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintf(p.out, "%q validate failed: \"cli\" version %s does not satisfy %q\n", fullPath, pinned, p.constraint)
		return false, nil
	}

	policy, err := merge.ParsePolicy(prof.FileMerge)
	if err != nil {
		return false, err
	}

	cmd, err := p.tool(prof)
	if err != nil {
		return false, err
	}

	job := orchestrate.Job{
		Tool:          cmd.Name,
		Args:          cmd.Args,
		Env:           cmd.Env,
		Rules:         Rules(prof),
		ProjectDir:    filepath.Join(filepath.Dir(fullPath), filepath.FromSlash(prof.ProjectDir)),
		Policy:        policy,
		StagingPrefix: stagingPrefix,
	}
	p.log.Debug("initializing project",
		zap.String("cli", prof.CLI),
		zap.String("template", prof.Template),
		zap.String("project", job.ProjectDir),
		zap.String("fileMerge", string(policy)))

	report, err := p.runner.Run(ctx, job)
	if err != nil {
		return false, err
	}
	return report.OK, nil
}

// denoCommand builds `deno run -A <cli> --template=<template>`.
func (p *Plugin) denoCommand(prof Profile) (driver.Command, error) {
	deno := p.denoPath
	if deno == "" {
		var err error
		deno, err = exec.LookPath("deno")
		if err != nil {
			return driver.Command{}, fmt.Errorf("alephjs initializer requires deno: %w", err)
		}
	}
	return driver.Command{
		Name: deno,
		Args: []string{"run", "-A", prof.CLI, "--template=" + prof.Template},
	}, nil
}

func joinIssues(issues []schema.Issue) string {
	parts := make([]string, len(issues))
	for i, is := range issues {
		parts[i] = is.String()
	}
	return strings.Join(parts, "; ")
}
