package sfcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/sflens/internal/logger"
)

const (
	// DefaultTimeout bounds a single CLI invocation.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxOutput is the stdout/stderr ceiling per invocation (10 MiB).
	DefaultMaxOutput = 10 * 1024 * 1024
)

// Runner executes one CLI command and returns its raw stdout.
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// Options configures an Executor.
type Options struct {
	Binary    string        // executable path or name (default "sf")
	Timeout   time.Duration // per invocation
	MaxOutput int           // bytes, per stream
	Rate      float64       // invocations per second; <= 0 disables throttling
	Burst     int
	Env       []string // extra KEY=VALUE pairs appended to the inherited environment
}

// Executor runs the real CLI binary.
type Executor struct {
	opts    Options
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewExecutor creates an Executor, filling defaults for zero options.
func NewExecutor(opts Options, log logger.Logger) *Executor {
	if opts.Binary == "" {
		opts.Binary = Binary
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxOutput <= 0 {
		opts.MaxOutput = DefaultMaxOutput
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst)
	}

	return &Executor{opts: opts, limiter: limiter, logger: log}
}

// Run executes cmd and returns stdout. Every failure is a *CommandError.
func (e *Executor) Run(ctx context.Context, cmd Command) ([]byte, error) {
	line := cmd.String()
	name := cmd.Name()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			commandsTotal.WithLabelValues(name, "throttled").Inc()
			return nil, &CommandError{Command: line, Message: err.Error(), ExitCode: -1, Err: err}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	c := exec.CommandContext(runCtx, e.opts.Binary, cmd.Args...)
	if len(e.opts.Env) > 0 {
		c.Env = append(c.Environ(), e.opts.Env...)
	}
	stdout := &limitedBuffer{max: e.opts.MaxOutput}
	stderr := &limitedBuffer{max: e.opts.MaxOutput}
	c.Stdout = stdout
	c.Stderr = stderr
	c.WaitDelay = 2 * time.Second

	start := time.Now()
	err := c.Run()
	elapsed := time.Since(start)
	commandDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	e.logger.Debug("sf command finished",
		logger.String("command", line),
		logger.Duration("elapsed", elapsed),
		logger.Int("stdout_bytes", stdout.buf.Len()))

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		commandsTotal.WithLabelValues(name, "timeout").Inc()
		return nil, &CommandError{
			Command:  line,
			Message:  fmt.Sprintf("command timed out after %s", e.opts.Timeout),
			ExitCode: -1,
			Timeout:  true,
			Err:      runCtx.Err(),
		}
	}

	if stdout.overflow || stderr.overflow {
		commandsTotal.WithLabelValues(name, "overflow").Inc()
		return nil, &CommandError{
			Command:  line,
			Message:  fmt.Sprintf("command output exceeded %d bytes", e.opts.MaxOutput),
			ExitCode: -1,
			Err:      errOutputLimit,
		}
	}

	if err != nil {
		commandsTotal.WithLabelValues(name, "error").Inc()
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		msg := cliMessage(stdout.buf.Bytes())
		if msg == "" {
			msg = cliMessage(stderr.buf.Bytes())
		}
		if msg == "" {
			msg = strings.TrimSpace(stderr.buf.String())
		}
		if msg == "" {
			msg = err.Error()
		}
		return nil, &CommandError{Command: line, Message: msg, ExitCode: exitCode, Err: err}
	}

	commandsTotal.WithLabelValues(name, "ok").Inc()
	return stdout.buf.Bytes(), nil
}

// Exec runs cmd through r and decodes its JSON output into T.
// A JSON document carrying a non-zero "status" is treated as a failure.
func Exec[T any](ctx context.Context, r Runner, cmd Command) (T, error) {
	var out T

	raw, err := r.Run(ctx, cmd)
	if err != nil {
		return out, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return out, &CommandError{
			Command:  cmd.String(),
			Message:  fmt.Sprintf("invalid JSON output: %v", err),
			ExitCode: 0,
			Err:      err,
		}
	}
	if env.Status != 0 {
		return out, &CommandError{Command: cmd.String(), Message: env.message(), ExitCode: env.Status}
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &CommandError{
			Command:  cmd.String(),
			Message:  fmt.Sprintf("unexpected JSON shape: %v", err),
			ExitCode: 0,
			Err:      err,
		}
	}
	return out, nil
}

// envelope is the part of every --json response shared by all commands.
type envelope struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e envelope) message() string {
	switch {
	case e.Message == "":
		return e.Name
	case e.Name == "" || strings.Contains(e.Message, e.Name):
		return e.Message
	default:
		return e.Name + ": " + e.Message
	}
}

// cliMessage extracts the error message from a --json error document.
func cliMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return ""
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.message()
}

var errOutputLimit = errors.New("output limit exceeded")

// limitedBuffer keeps at most max bytes and records overflow.
type limitedBuffer struct {
	buf      bytes.Buffer
	max      int
	overflow bool
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if l.buf.Len()+len(p) > l.max {
		l.overflow = true
		return 0, errOutputLimit
	}
	return l.buf.Write(p)
}
