package alephjs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/agentx-labs/projinit/internal/driver"
	"github.com/agentx-labs/projinit/internal/driver/drivertest"
	"github.com/agentx-labs/projinit/internal/orchestrate"
	"github.com/agentx-labs/projinit/internal/predicate"
	"github.com/agentx-labs/projinit/internal/schema"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	drivertest.Main()
	os.Exit(m.Run())
}

func newCompiler() *schema.Compiler {
	return schema.NewCompiler(predicate.Default(predicate.NewTemplateProber(nil)))
}

func testRunner(t *testing.T) *orchestrate.Runner {
	t.Helper()
	r := orchestrate.NewRunner(zaptest.NewLogger(t))
	r.TempDir = t.TempDir()
	r.Driver.Transcript = io.Discard
	return r
}

func writeProfile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func noTool(t *testing.T) Option {
	return WithToolCommand(func(Profile) (driver.Command, error) {
		t.Fatal("initializer started for a rejected profile")
		return driver.Command{}, nil
	})
}

func TestInitialize_ReactSkipScenario(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "profiles", "aleph.json")
	writeProfile(t, cfg, `{
  "template": "react",
  "projectDir": "./out",
  "fileMerge": "skip",
  "genRouteExport": true,
  "useUnocss": false,
  "useVSCode": true
}`)

	project := filepath.Join(dir, "profiles", "out")
	userConfig := `{"tasks": {"dev": "deno task dev"}}`
	writeProfile(t, filepath.Join(project, "deno.json"), userConfig)

	answers := filepath.Join(dir, "answers.txt")
	script := drivertest.Script{
		Answers: answers,
		Steps: []string{
			"out:Downloading template react...",
			`file:deno.json={"generated": true}`,
			"file:routes/index.tsx=export default function Index() {}",
			"ask:? Generate `_export.ts` file for runtime that doesn't support dynamic import? [y/N] ",
			"file:routes/_export.ts=export default {}",
			"ask:? Using Unocss (Atomic CSS)? [y/N] ",
			"ask:? Initialize VS Code workspace configuration? [y/N] ",
			"out:Aleph.js is ready to go!",
		},
	}

	var used Profile
	var msgs bytes.Buffer
	runner := testRunner(t)
	p := New(
		WithLogger(zaptest.NewLogger(t)),
		WithOutput(&msgs),
		WithRunner(runner),
		WithToolCommand(func(prof Profile) (driver.Command, error) {
			used = prof
			return drivertest.Command(script), nil
		}),
	)

	ok, err := p.Initialize(context.Background(), newCompiler(), cfg)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !ok {
		t.Fatalf("Initialize returned false; messages:\n%s", msgs.String())
	}

	if used.CLI != DefaultCLI {
		t.Errorf("cli = %q, want default %q", used.CLI, DefaultCLI)
	}

	got, err := drivertest.ReadAnswers(answers)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Y", "N", "Y"}; !reflect.DeepEqual(got, want) {
		t.Errorf("answers = %v, want %v", got, want)
	}

	data, err := os.ReadFile(filepath.Join(project, "deno.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != userConfig {
		t.Errorf("deno.json overwritten: %s", data)
	}
	for _, f := range []string{"routes/index.tsx", "routes/_export.ts"} {
		if _, err := os.Stat(filepath.Join(project, filepath.FromSlash(f))); err != nil {
			t.Errorf("%s not copied: %v", f, err)
		}
	}

	entries, err := os.ReadDir(runner.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("staging directory left behind: %v", entries)
	}
}

func TestInitialize_ToolErrorLeavesProjectUntouched(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "aleph.json")
	writeProfile(t, cfg, `{"projectDir": "./site", "fileMerge": "replace"}`)

	p := New(
		WithOutput(io.Discard),
		WithRunner(testRunner(t)),
		WithToolCommand(func(Profile) (driver.Command, error) {
			return drivertest.Command(drivertest.Script{Steps: []string{
				"file:deno.json={}",
				"err:error: Could not resolve template",
			}}), nil
		}),
	)

	ok, err := p.Initialize(context.Background(), newCompiler(), cfg)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if ok {
		t.Fatal("Initialize returned true despite the tool error")
	}
	if _, err := os.Stat(filepath.Join(dir, "site")); !os.IsNotExist(err) {
		t.Errorf("project directory was created: %v", err)
	}
}

func TestInitialize_MalformedProfile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "aleph.json")
	writeProfile(t, cfg, `{"template": "react",`)

	var msgs bytes.Buffer
	p := New(WithOutput(&msgs), noTool(t))

	ok, err := p.Initialize(context.Background(), newCompiler(), cfg)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if ok {
		t.Fatal("Initialize returned true for a malformed profile")
	}
	if !strings.Contains(msgs.String(), "is not a valid json.") {
		t.Errorf("message = %q", msgs.String())
	}
}

func TestInitialize_MissingProfile(t *testing.T) {
	p := New(WithOutput(io.Discard), noTool(t))
	_, err := p.Initialize(context.Background(), newCompiler(), filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for a missing profile")
	}
}

func TestInitialize_InvalidProfile(t *testing.T) {
	cases := []struct {
		name    string
		profile string
		want    string
	}{
		{"bad policy", `{"fileMerge": "merge"}`, `"fileMerge"`},
		{"unknown field", `{"projectName": "./x"}`, "validate failed"},
		{"absolute project dir", `{"projectDir": "/srv/site"}`, `"projectDir"`},
		{"unknown template", `{"template": "svelte"}`, `"template"`},
		{"foreign cli", `{"cli": "https://example.com/init.ts"}`, `"cli"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := filepath.Join(t.TempDir(), "aleph.json")
			writeProfile(t, cfg, tc.profile)

			var msgs bytes.Buffer
			p := New(WithOutput(&msgs), noTool(t))
			ok, err := p.Initialize(context.Background(), newCompiler(), cfg)
			if err != nil {
				t.Fatalf("Initialize: %v", err)
			}
			if ok {
				t.Fatal("Initialize returned true")
			}
			if !strings.Contains(msgs.String(), "validate failed") || !strings.Contains(msgs.String(), tc.want) {
				t.Errorf("message = %q, want it to mention %s", msgs.String(), tc.want)
			}
		})
	}
}

func TestInitialize_YAMLProfile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "aleph.yaml")
	writeProfile(t, cfg, "template: vue\nprojectDir: ./web\nuseVSCode: false\n")

	var used Profile
	p := New(
		WithOutput(io.Discard),
		WithRunner(testRunner(t)),
		WithToolCommand(func(prof Profile) (driver.Command, error) {
			used = prof
			return drivertest.Command(drivertest.Script{Steps: []string{"file:index.ts=1"}}), nil
		}),
	)

	ok, err := p.Initialize(context.Background(), newCompiler(), cfg)
	if err != nil || !ok {
		t.Fatalf("Initialize = %v, %v", ok, err)
	}
	if used.Template != "vue" || used.UseVSCode || !used.GenRouteExport {
		t.Errorf("profile = %+v", used)
	}
	if _, err := os.Stat(filepath.Join(dir, "web", "index.ts")); err != nil {
		t.Errorf("index.ts not merged: %v", err)
	}
}

func TestInitialize_CLIConstraint(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "aleph.json")
	writeProfile(t, cfg, `{"cli": "https://deno.land/x/aleph@0.3.0/init.ts"}`)

	var msgs bytes.Buffer
	p := New(WithOutput(&msgs), WithCLIConstraint(">= 1.0.0-beta.1"), noTool(t))

	ok, err := p.Initialize(context.Background(), newCompiler(), cfg)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if ok {
		t.Fatal("Initialize accepted a version outside the constraint")
	}
	if !strings.Contains(msgs.String(), "does not satisfy") {
		t.Errorf("message = %q", msgs.String())
	}
}

func TestCheckVersion(t *testing.T) {
	cases := []struct {
		cli        string
		constraint string
		want       bool
		wantErr    bool
	}{
		{DefaultCLI, ">= 1.0.0", true, false},
		{"https://deno.land/x/aleph@1.0.0-beta.19/init.ts", ">= 1.0.0-beta.1", true, false},
		{"https://deno.land/x/aleph@0.3.0/init.ts", ">= 1.0.0-beta.1", false, false},
		{"https://deno.land/x/aleph@0.3.0/init.ts", "", true, false},
		{"https://deno.land/x/aleph@1.2.3/init.ts", "not a constraint", false, true},
	}

	for _, tc := range cases {
		t.Run(tc.cli+" "+tc.constraint, func(t *testing.T) {
			ok, _, err := checkVersion(tc.cli, tc.constraint)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if ok != tc.want {
				t.Errorf("ok = %v, want %v", ok, tc.want)
			}
		})
	}
}

func TestExportDefaultConfig_RoundTrip(t *testing.T) {
	c := newCompiler()
	path := filepath.Join(t.TempDir(), "alephjsProject", "profiles", "metaway.json")

	p := New(WithOutput(io.Discard))
	ok, err := p.ExportDefaultConfig(context.Background(), c, path)
	if err != nil || !ok {
		t.Fatalf("ExportDefaultConfig = %v, %v", ok, err)
	}

	doc, err := schema.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := map[string]any{
		"cli":            DefaultCLI,
		"template":       "react",
		"projectDir":     "./",
		"fileMerge":      "skip",
		"genRouteExport": true,
		"useUnocss":      false,
		"useVSCode":      true,
	}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("exported = %v, want %v", doc, want)
	}

	v, ok := c.Lookup(SchemaID)
	if !ok {
		t.Fatal("profile schema not cached after export")
	}
	if err := v.Validate(context.Background(), doc); err != nil {
		t.Fatalf("exported profile does not validate: %v", err)
	}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("validation changed the exported profile: %v", doc)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  \"cli\": ") {
		t.Errorf("export is not two-space indented:\n%s", data)
	}
}

func TestRules(t *testing.T) {
	rules := Rules(Profile{GenRouteExport: false, UseUnocss: true, UseVSCode: false})

	want := []struct{ match, resp string }{
		{PromptAlreadyExists, "Y"},
		{PromptRouteExport, "N"},
		{PromptUnocss, "Y"},
		{PromptVSCode, "N"},
	}
	if len(rules) != len(want) {
		t.Fatalf("got %d rules, want %d", len(rules), len(want))
	}
	for i, w := range want {
		if rules[i].Match != w.match || string(rules[i].Response) != w.resp {
			t.Errorf("rule %d = %q -> %q, want %q -> %q", i, rules[i].Match, rules[i].Response, w.match, w.resp)
		}
	}
}

func TestDenoCommand(t *testing.T) {
	p := New(WithDenoPath("/opt/deno/bin/deno"))
	cmd, err := p.denoCommand(Profile{CLI: DefaultCLI, Template: "solid"})
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Name != "/opt/deno/bin/deno" {
		t.Errorf("Name = %q", cmd.Name)
	}
	want := []string{"run", "-A", DefaultCLI, "--template=solid"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
}

func TestProjectDirPattern(t *testing.T) {
	v, err := newCompiler().Compile(schemaJSON)
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]bool{
		"./":           true,
		"./out":        true,
		"../site/app":  true,
		"./a/b/":       true,
		"out":          false,
		"/srv/site":    false,
		"./with space": false,
		"./.hidden":    false,
	}
	for dir, valid := range cases {
		err := v.Validate(context.Background(), map[string]any{"projectDir": dir})
		if (err == nil) != valid {
			t.Errorf("projectDir %q: err = %v, want valid=%v", dir, err, valid)
		}
	}
}

func TestPinnedVersion(t *testing.T) {
	v, err := PinnedVersion("https://deno.land/x/aleph@1.0.0-beta.19/init.ts")
	if err != nil {
		t.Fatal(err)
	}
	if v == nil || v.Original() != "1.0.0-beta.19" {
		t.Errorf("PinnedVersion = %v", v)
	}

	v, err = PinnedVersion(DefaultCLI)
	if err != nil || v != nil {
		t.Errorf("PinnedVersion(unpinned) = %v, %v", v, err)
	}
}
