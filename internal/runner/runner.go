// Package runner spawns the external energy-smell analyzer and collects its
// complete output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrAnalyzerMissing is wrapped when the interpreter or script can't be found.
var ErrAnalyzerMissing = errors.New("analyzer not found")

// Error is an analysis-level failure. The engine is never run when one is
// returned.
type Error struct {
	Path     string // document being analyzed
	ExitCode int    // -1 when the process never exited normally
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("analyzing %s: %v", e.Path, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += " | stderr: " + s
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Analyzer runs `<Python> <Script> <path>` from the script's directory.
type Analyzer struct {
	Python  string
	Script  string
	Timeout time.Duration // zero means no limit
}

// New returns an Analyzer for the given interpreter and script.
func New(python, script string, timeout time.Duration) *Analyzer {
	return &Analyzer{Python: python, Script: script, Timeout: timeout}
}

// Identity describes the analyzer for cache keys and logs.
func (a *Analyzer) Identity() string {
	return a.Python + " " + a.Script
}

// Run analyzes the file at path and returns the analyzer's stdout once both
// output streams have closed and the process has exited successfully.
// Output written to stderr by a successful run is logged, not returned.
func (a *Analyzer) Run(ctx context.Context, path string) (string, error) {
	python, script, err := a.resolve()
	if err != nil {
		return "", &Error{Path: path, ExitCode: -1, Err: err}
	}
	if _, err := os.Stat(script); err != nil {
		return "", &Error{Path: path, ExitCode: -1, Err: fmt.Errorf("%w: script %s: %v", ErrAnalyzerMissing, script, err)}
	}

	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, python, script, path)
	cmd.Dir = filepath.Dir(script)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", &Error{Path: path, ExitCode: -1, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", &Error{Path: path, ExitCode: -1, Err: err}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %v", ErrAnalyzerMissing, err)
		}
		return "", &Error{Path: path, ExitCode: -1, Err: err}
	}

	// Both pipes are drained to EOF before Wait closes them.
	var out, errOut bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&out, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errOut, stderr)
		return err
	})
	streamErr := g.Wait()
	waitErr := cmd.Wait()

	entry := log.WithFields(log.Fields{
		"path":    path,
		"elapsed": time.Since(start).Round(time.Millisecond),
	})
	entry.Tracef("stdout: %s", out.String())

	if waitErr != nil {
		// A killed process reports "signal: killed"; say why it was killed.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &Error{Path: path, ExitCode: -1, Stderr: errOut.String(),
				Err: fmt.Errorf("analysis time exceeded limit (%v)", a.Timeout)}
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", &Error{Path: path, ExitCode: -1, Stderr: errOut.String(), Err: ctx.Err()}
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		entry.WithField("exit_code", code).Debug("analyzer failed")
		return "", &Error{Path: path, ExitCode: code, Stderr: errOut.String(), Err: waitErr}
	}
	if streamErr != nil {
		return "", &Error{Path: path, ExitCode: 0, Stderr: errOut.String(), Err: fmt.Errorf("reading analyzer output: %w", streamErr)}
	}

	if s := strings.TrimSpace(errOut.String()); s != "" {
		entry.Warnf("analyzer wrote to stderr: %s", s)
	}
	entry.WithField("bytes", out.Len()).Debug("analyzer finished")

	return out.String(), nil
}

// resolve returns the interpreter and script made absolute against the
// current directory, since the process runs from the script's directory.
// A bare interpreter name is left for the PATH lookup.
func (a *Analyzer) resolve() (python, script string, err error) {
	script, err = filepath.Abs(a.Script)
	if err != nil {
		return "", "", fmt.Errorf("resolving script %s: %w", a.Script, err)
	}
	python = a.Python
	if strings.ContainsRune(python, '/') || strings.ContainsRune(python, filepath.Separator) {
		if python, err = filepath.Abs(python); err != nil {
			return "", "", fmt.Errorf("resolving interpreter %s: %w", a.Python, err)
		}
	}
	return python, script, nil
}
