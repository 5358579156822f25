// Package sfclitest provides an in-memory sfcli.Runner for tests.
package sfclitest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/sflens/internal/sfcli"
)

// Response is the canned outcome of one command.
type Response struct {
	Output string // raw stdout
	Err    error  // returned as-is when set
	// Gate, when non-nil, blocks the call until it is closed (or ctx ends).
	Gate chan struct{}
}

// Runner answers commands from a table keyed by Command.String().
// Keys may also be registered as prefixes with OnPrefix.
type Runner struct {
	mu       sync.Mutex
	exact    map[string]Response
	prefixes []prefixResponse
	calls    []string
}

type prefixResponse struct {
	prefix string
	resp   Response
}

// New returns an empty fake runner. Unknown commands fail.
func New() *Runner {
	return &Runner{exact: make(map[string]Response)}
}

// On registers a response for the exact rendered command.
func (r *Runner) On(cmd sfcli.Command, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[cmd.String()] = resp
	return r
}

// OnJSON registers v, encoded as JSON, as the output of cmd.
func (r *Runner) OnJSON(cmd sfcli.Command, v any) *Runner {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return r.On(cmd, Response{Output: string(raw)})
}

// OnError registers a CLI failure with message for cmd.
func (r *Runner) OnError(cmd sfcli.Command, message string) *Runner {
	return r.On(cmd, Response{Err: &sfcli.CommandError{Command: cmd.String(), Message: message, ExitCode: 1}})
}

// OnPrefix registers a response for every command whose rendering starts with prefix.
func (r *Runner) OnPrefix(prefix string, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes = append(r.prefixes, prefixResponse{prefix: prefix, resp: resp})
	return r
}

// Run implements sfcli.Runner.
func (r *Runner) Run(ctx context.Context, cmd sfcli.Command) ([]byte, error) {
	line := cmd.String()

	r.mu.Lock()
	r.calls = append(r.calls, line)
	resp, ok := r.exact[line]
	if !ok {
		for _, p := range r.prefixes {
			if strings.HasPrefix(line, p.prefix) {
				resp, ok = p.resp, true
				break
			}
		}
	}
	r.mu.Unlock()

	if !ok {
		return nil, &sfcli.CommandError{Command: line, Message: fmt.Sprintf("unexpected command: %s", line), ExitCode: 1}
	}
	if resp.Gate != nil {
		select {
		case <-resp.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return []byte(resp.Output), nil
}

// Calls returns every rendered command received, in order.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Count returns how many times cmd was run.
func (r *Runner) Count(cmd sfcli.Command) int {
	line := cmd.String()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == line {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls, keeping responses.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
