package alephjs

import (
	_ "embed"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/agentx-labs/projinit/internal/driver"
)

//go:embed init.schema.json
var schemaJSON []byte

// SchemaID is the $id of the profile schema.
const SchemaID = "alephjs/init"

// DefaultCLI is the unpinned initializer entry point.
const DefaultCLI = "https://deno.land/x/aleph/init.ts"

// Profile is a validated initialization profile.
type Profile struct {
	CLI            string `json:"cli"`
	Template       string `json:"template"`
	ProjectDir     string `json:"projectDir"`
	FileMerge      string `json:"fileMerge"`
	GenRouteExport bool   `json:"genRouteExport"`
	UseUnocss      bool   `json:"useUnocss"`
	UseVSCode      bool   `json:"useVSCode"`
}

// Prompt fragments printed by the initializer.
const (
	PromptAlreadyExists = "already exists"
	PromptRouteExport   = "Generate `_export.ts`"
	PromptUnocss        = "Using Unocss"
	PromptVSCode        = "Initialize VS Code workspace configuration"
)

// Rules returns the prompt rules for p, in match priority order. Existing
// staging content is always confirmed; the merge policy decides what reaches
// the project.
func Rules(p Profile) []driver.Rule {
	return []driver.Rule{
		{Match: PromptAlreadyExists, Response: []byte("Y")},
		{Match: PromptRouteExport, Response: answer(p.GenRouteExport)},
		{Match: PromptUnocss, Response: answer(p.UseUnocss)},
		{Match: PromptVSCode, Response: answer(p.UseVSCode)},
	}
}

func answer(yes bool) []byte {
	if yes {
		return []byte("Y")
	}
	return []byte("N")
}

var pinnedCLI = regexp.MustCompile(`^https://deno\.land/x/aleph@([^/]+)/init\.ts$`)

// PinnedVersion returns the version an initializer URL is pinned to, or nil
// for the unpinned URL.
func PinnedVersion(cli string) (*semver.Version, error) {
	m := pinnedCLI.FindStringSubmatch(cli)
	if m == nil {
		return nil, nil
	}
	v, err := semver.StrictNewVersion(m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing initializer version %q: %w", m[1], err)
	}
	return v, nil
}

// checkVersion reports whether cli satisfies constraint. An empty constraint
// or an unpinned URL always passes.
func checkVersion(cli, constraint string) (bool, *semver.Version, error) {
	if constraint == "" {
		return true, nil, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, nil, fmt.Errorf("parsing initializer constraint %q: %w", constraint, err)
	}
	v, err := PinnedVersion(cli)
	if err != nil {
		return false, nil, err
	}
	if v == nil {
		return true, nil, nil
	}
	return c.Check(v), v, nil
}
