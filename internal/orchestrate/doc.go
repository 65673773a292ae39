// Package orchestrate performs one project-initialization run: it creates a
// private staging directory, drives the scaffolding tool into it, merges the
// result into the project directory when the tool reported no errors, and
// removes the staging directory on every path out.
package orchestrate
