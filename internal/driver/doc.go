// Package driver runs an interactive command-line tool without a human at
// the keyboard.
//
// The tool's stdout and stderr are read concurrently and merged in arrival
// order. Each output line is checked against an ordered list of prompt rules;
// the first rule whose text appears in the line has its response written to
// the tool's stdin. Lines that match no rule are echoed to the transcript and
// scanned for an error marker. Once the marker is seen the run is reported as
// failed, whatever the tool does afterwards.
//
// The driver imposes no timeout of its own. A tool that never exits keeps
// Run blocked until the caller cancels the context.
package driver
