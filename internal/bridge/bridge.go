// Package bridge spawns and manages child interpreter processes for
// externally-implemented capabilities (ML-backed extractors shipped as
// Python wrapper scripts).
//
// Wire contract: the child receives each argument JSON-encoded as one
// positional argv entry, writes exactly one JSON document to stdout and
// exits 0 on success; diagnostics go to stderr. The caller enforces a
// wall-clock timeout from spawn.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/quantmind-br/kbingest-go/internal/domain"
	"github.com/quantmind-br/kbingest-go/internal/utils"
)

// DefaultTimeout bounds an invocation when the caller passes zero.
const DefaultTimeout = 2 * time.Minute

// maxCapturedStderr bounds how much child stderr is retained per call.
const maxCapturedStderr = 64 * 1024

// Bridge invokes child interpreter processes. Each invocation is fully
// independent; the Bridge holds no mutable state, so any number of
// invocations may run in parallel. Callers bound concurrency.
type Bridge struct {
	interpreter string
	tempDir     string
	logger      *utils.Logger
}

// Options contains options for creating a Bridge.
type Options struct {
	// Interpreter is the executable used by InvokeCode and
	// ProbeEnvironment, e.g. "python3".
	Interpreter string
	// TempDir overrides the directory for InvokeCode temp files.
	TempDir string
	Logger  *utils.Logger
}

// New creates a Bridge.
func New(opts Options) *Bridge {
	if opts.Interpreter == "" {
		opts.Interpreter = "python3"
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger()
	}
	return &Bridge{
		interpreter: opts.Interpreter,
		tempDir:     opts.TempDir,
		logger:      opts.Logger.WithComponent("bridge"),
	}
}

// Interpreter returns the configured interpreter executable.
func (b *Bridge) Interpreter() string {
	return b.interpreter
}

// Invoke runs `executable script args...` with each arg JSON-encoded
// positionally, captures stdout/stderr incrementally, and parses the
// trailing stdout as one JSON document. A timer armed at spawn kills the
// child if it outlives the timeout; a timeout is a distinct outcome from
// a non-zero exit so callers can tell "too slow" from "errored".
// Invoke never returns a Go error for expected runtime failures: spawn
// failure, non-zero exit, JSON-parse failure, and timeout are all
// surfaced through the result shape.
func (b *Bridge) Invoke(ctx context.Context, executable, script string, args []any, timeout time.Duration) *domain.BridgeResult {
	start := time.Now()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	argv := make([]string, 0, len(args)+1)
	argv = append(argv, script)
	for i, arg := range args {
		encoded, err := json.Marshal(arg)
		if err != nil {
			return &domain.BridgeResult{
				Success:  false,
				Error:    fmt.Sprintf("encode argument %d: %v", i, err),
				ExitCode: -1,
				Duration: time.Since(start),
			}
		}
		argv = append(argv, string(encoded))
	}

	cmd := exec.Command(executable, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return &domain.BridgeResult{
			Success:  false,
			Error:    fmt.Sprintf("spawn failed: %v", err),
			ExitCode: -1,
			Duration: time.Since(start),
		}
	}

	b.logger.Debug().
		Str("executable", executable).
		Str("script", script).
		Int("args", len(args)).
		Dur("timeout", timeout).
		Msg("Bridge invocation started")

	var timedOut atomic.Bool
	timer := time.AfterFunc(timeout, func() {
		timedOut.Store(true)
		_ = cmd.Process.Kill()
	})
	defer timer.Stop()

	// Context cancellation also kills the child; it is reported as a
	// timeout outcome since the caller gave up waiting.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			timedOut.Store(true)
			_ = cmd.Process.Kill()
		case <-watchDone:
		}
	}()

	waitErr := cmd.Wait()
	close(watchDone)
	duration := time.Since(start)

	result := &domain.BridgeResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stderr:   truncate(stderr.String(), maxCapturedStderr),
		Duration: duration,
	}

	if timedOut.Load() {
		result.TimedOut = true
		result.Error = fmt.Sprintf("timed out after %s", timeout)
		b.logger.Warn().Str("script", script).Dur("duration", duration).Msg("Bridge invocation timed out")
		return result
	}

	doc, parseErr := parseTrailingJSON(stdout.Bytes())

	if waitErr != nil {
		result.Error = fmt.Sprintf("exit code %d", result.ExitCode)
		// Wrappers emit a JSON error document before a non-zero exit;
		// prefer its message over the bare exit code.
		if parseErr == nil {
			result.Data = doc
			if msg, ok := doc["error"].(string); ok && msg != "" {
				result.Error = msg
			}
		} else if result.Stderr != "" {
			result.Error = fmt.Sprintf("exit code %d: %s", result.ExitCode, firstLine(result.Stderr))
		}
		return result
	}

	if parseErr != nil {
		result.Error = fmt.Sprintf("invalid JSON output: %v", parseErr)
		return result
	}

	result.Data = doc
	// A well-formed document may still report failure in-band.
	if success, ok := doc["success"].(bool); ok && !success {
		if msg, ok := doc["error"].(string); ok {
			result.Error = msg
		} else {
			result.Error = "wrapper reported failure"
		}
		return result
	}

	result.Success = true
	b.logger.Debug().Str("script", script).Dur("duration", duration).Msg("Bridge invocation completed")
	return result
}

// parseTrailingJSON decodes the final JSON document from child stdout.
// Wrappers print the document last; anything before it (stray prints
// from imported libraries) is ignored.
func parseTrailingJSON(out []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty output")
	}

	var doc map[string]any
	if err := json.Unmarshal(trimmed, &doc); err == nil {
		return doc, nil
	}

	// Fall back to the last object-opening line.
	if idx := bytes.LastIndex(trimmed, []byte("\n{")); idx >= 0 {
		if err := json.Unmarshal(trimmed[idx+1:], &doc); err == nil {
			return doc, nil
		}
	}

	return nil, fmt.Errorf("no JSON document in output")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
