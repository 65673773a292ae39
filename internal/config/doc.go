// Package config manages user-level settings stored at ~/.projinit/config.yaml.
// Settings cover the deno binary used to run scaffolding tools, the timeout of
// template existence probes, and per-template version constraints. Every key
// can be overridden with a PROJINIT_-prefixed environment variable.
package config
