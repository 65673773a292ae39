package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/agentx-labs/projinit/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrorMarker is the substring that marks an unmatched output line as a
// failure report from the tool.
const ErrorMarker = "error"

const readBufferSize = 4096

// Rule answers one kind of prompt. Rules are evaluated in order and the
// first whose Match occurs in a line wins.
type Rule struct {
	Match    string
	Response []byte
}

// Command describes the process to spawn.
type Command struct {
	Name string
	Args []string
	Dir  string   // working directory of the child; empty means the current one
	Env  []string // full environment; nil inherits the current process's
}

// Exchange records one answered prompt.
type Exchange struct {
	Prompt   string
	Response string
}

// Outcome summarizes a finished run.
type Outcome struct {
	OK         bool // no output line carried the error marker
	ErrorLines []string
	Exchanges  []Exchange
	ExitCode   int
}

// Driver spawns tools and answers their prompts. The zero value writes the
// transcript to os.Stdout and logs nothing.
type Driver struct {
	Log        *zap.Logger
	Transcript io.Writer
}

// Run starts cmd and drives it to completion with rules. It returns an error
// only when the process cannot be started, a pipe read or write fails, or ctx
// is cancelled. A non-zero exit status is recorded in the outcome.
func (d *Driver) Run(ctx context.Context, cmd Command, rules []Rule) (*Outcome, error) {
	log := logging.OrNop(d.Log)
	transcript := d.Transcript
	if transcript == nil {
		transcript = os.Stdout
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if cmd.Env != nil {
		c.Env = cmd.Env
	}

	stdin, err := c.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", cmd.Name, err)
	}

	s := &session{
		log:        log.With(zap.String("tool", cmd.Name)),
		transcript: transcript,
		stdin:      stdin,
		rules:      rules,
		outcome:    &Outcome{},
	}
	s.transition(StateSpawned)

	chunks := make(chan string)
	done := make(chan struct{})
	var readErr error

	var g errgroup.Group
	g.Go(func() error { return pump(stdout, chunks, done) })
	g.Go(func() error { return pump(stderr, chunks, done) })
	go func() {
		readErr = g.Wait()
		close(chunks)
	}()

	s.transition(StateReading)
	if err := s.consume(chunks); err != nil {
		close(done)
		_ = c.Process.Kill()
		for range chunks {
		}
		_ = c.Wait()
		return nil, err
	}
	close(done)
	s.transition(StateEOF)

	_ = stdin.Close()
	waitErr := c.Wait()
	s.transition(StateClosed)

	if readErr != nil {
		return nil, readErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("running %s: %w", cmd.Name, ctxErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("waiting for %s: %w", cmd.Name, waitErr)
		}
		s.outcome.ExitCode = exitErr.ExitCode()
		s.log.Warn("tool exited with non-zero status", zap.Int("code", s.outcome.ExitCode))
	}

	s.outcome.OK = len(s.outcome.ErrorLines) == 0
	return s.outcome, nil
}

// pump forwards decoded chunks from r until EOF or until done is closed.
func pump(r io.Reader, chunks chan<- string, done <-chan struct{}) error {
	dec := transform.NewReader(r, unicode.UTF8.NewDecoder())
	buf := make([]byte, readBufferSize)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			select {
			case chunks <- string(buf[:n]):
			case <-done:
				return nil
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tool output: %w", err)
		}
	}
}

// session holds the state of one run.
type session struct {
	log        *zap.Logger
	transcript io.Writer
	stdin      io.Writer
	rules      []Rule
	outcome    *Outcome
	state      State
}

func (s *session) transition(to State) {
	s.log.Debug("driver state", zap.Stringer("from", s.state), zap.Stringer("to", to))
	s.state = to
}

// consume splits the merged stream into lines. A trailing partial line is
// handled at once when it matches a rule, because prompts wait for input
// without printing a newline; otherwise it is held until more data arrives.
func (s *session) consume(chunks <-chan string) error {
	var pending string
	for chunk := range chunks {
		pending += chunk
		for {
			i := strings.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			line := strings.TrimSuffix(pending[:i], "\r")
			pending = pending[i+1:]
			if err := s.handle(line); err != nil {
				return err
			}
		}
		if pending != "" && s.match(pending) != nil {
			line := pending
			pending = ""
			if err := s.handle(line); err != nil {
				return err
			}
		}
	}
	if pending != "" {
		return s.handle(pending)
	}
	return nil
}

func (s *session) match(line string) *Rule {
	for i := range s.rules {
		if strings.Contains(line, s.rules[i].Match) {
			return &s.rules[i]
		}
	}
	return nil
}

func (s *session) handle(line string) error {
	rule := s.match(line)
	if rule == nil {
		fmt.Fprintln(s.transcript, line)
		if strings.Contains(line, ErrorMarker) {
			if len(s.outcome.ErrorLines) == 0 {
				s.log.Warn("tool output contains the error marker; the run will not be merged",
					zap.String("marker", ErrorMarker),
					zap.String("line", line),
					zap.String("note", "any line containing the marker counts, including file names"))
			}
			s.outcome.ErrorLines = append(s.outcome.ErrorLines, line)
		}
		return nil
	}

	s.transition(StatePromptMatched)
	if _, err := s.stdin.Write(rule.Response); err != nil {
		return fmt.Errorf("answering prompt %q: %w", rule.Match, err)
	}
	s.transition(StateResponded)

	fmt.Fprintf(s.transcript, "%s %s\n", line, rule.Response)
	s.outcome.Exchanges = append(s.outcome.Exchanges, Exchange{Prompt: line, Response: string(rule.Response)})
	s.transition(StateReading)
	return nil
}
