// Package alephjs drives the Aleph.js project initializer (deno run -A
// https://deno.land/x/aleph/init.ts) from a JSON profile instead of an
// interactive terminal.
//
// A profile selects the upstream template, the target directory relative to
// the profile file, how files that already exist there are treated, and the
// answers to the three feature prompts the initializer asks. The initializer
// writes into a fresh staging directory; its files are merged into the target
// only when it finishes without reporting an error.
package alephjs
