// Package drivertest provides a scriptable stand-in for interactive
// scaffolding tools. The fake runs inside the test binary itself: a test
// package calls Main from TestMain, and Command re-executes the binary with
// a script describing what the tool prints, asks and writes.
//
// Script steps, one per string:
//
//	out:<text>        print text and a newline on stdout
//	err:<text>        print text and a newline on stderr
//	ask:<text>        print text without a newline, then read one byte of answer
//	file:<path>=<txt> write txt to path, relative to the destination argument
//	sleep:<duration>  pause
//	exit:<code>       exit immediately with code
//
// Answers read by ask steps are appended, one per line, to the file named by
// the Answers field of the Script.
package drivertest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/agentx-labs/projinit/internal/driver"
)

const (
	envEnabled = "PROJINIT_FAKE_TOOL"
	envScript  = "PROJINIT_FAKE_TOOL_SCRIPT"
	envAnswers = "PROJINIT_FAKE_TOOL_ANSWERS"
	stepSep    = "\x1e"
)

// Script configures one fake tool run.
type Script struct {
	Steps   []string
	Answers string // file receiving answers; empty discards them
}

// Main runs the fake tool and exits when the test binary was started by
// Command. It returns immediately otherwise.
func Main() {
	if os.Getenv(envEnabled) != "1" {
		return
	}
	os.Exit(run())
}

// Command returns a driver command that runs s. Extra args are appended to
// the command line; the last argument is the destination directory used by
// file steps.
func Command(s Script, args ...string) driver.Command {
	env := append(os.Environ(),
		envEnabled+"=1",
		envScript+"="+strings.Join(s.Steps, stepSep),
		envAnswers+"="+s.Answers,
	)
	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}
	return driver.Command{
		Name: self,
		Args: append([]string{"-test.run=^$"}, args...),
		Env:  env,
	}
}

// ReadAnswers returns the answers recorded in path.
func ReadAnswers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func run() int {
	dest := "."
	if len(os.Args) > 2 {
		dest = os.Args[len(os.Args)-1]
	}
	stdin := bufio.NewReader(os.Stdin)

	for _, step := range strings.Split(os.Getenv(envScript), stepSep) {
		kind, arg, _ := strings.Cut(step, ":")
		switch kind {
		case "out":
			fmt.Fprintln(os.Stdout, arg)
		case "err":
			fmt.Fprintln(os.Stderr, arg)
		case "ask":
			fmt.Fprint(os.Stdout, arg)
			b, err := stdin.ReadByte()
			if err != nil {
				fmt.Fprintf(os.Stderr, "fake tool: no answer: %v\n", err)
				return 3
			}
			if err := recordAnswer(string(b)); err != nil {
				fmt.Fprintf(os.Stderr, "fake tool: %v\n", err)
				return 3
			}
		case "file":
			rel, content, _ := strings.Cut(arg, "=")
			path := filepath.Join(dest, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				fmt.Fprintf(os.Stderr, "fake tool: %v\n", err)
				return 3
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				fmt.Fprintf(os.Stderr, "fake tool: %v\n", err)
				return 3
			}
		case "sleep":
			d, _ := time.ParseDuration(arg)
			time.Sleep(d)
		case "exit":
			code, _ := strconv.Atoi(arg)
			return code
		}
	}
	return 0
}

func recordAnswer(answer string) error {
	path := os.Getenv(envAnswers)
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, answer); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
