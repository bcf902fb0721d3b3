package runnertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oraops/oradbctl/internal/runner"
)

// Response pairs a scripted Result with an optional spawn error.
type Response struct {
	Result runner.Result
	Err    error
}

// Fake is a scripted Runner for tests. Responses are consumed in FIFO order;
// when the queue is empty a rule matched by argv substring answers instead,
// and failing that the zero Result is returned.
type Fake struct {
	mu    sync.Mutex
	queue []Response
	rules []rule

	// Calls records every command in invocation order.
	Calls []runner.Command
}

type rule struct {
	substr string
	resp   Response
}

// Enqueue appends a scripted response consumed by the next Run call.
func (f *Fake) Enqueue(res runner.Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, Response{Result: res, Err: err})
}

// On registers a fallback response for any command whose argv contains substr.
// Rules are only consulted once the FIFO queue is exhausted.
func (f *Fake) On(substr string, res runner.Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{substr: substr, resp: Response{Result: res, Err: err}})
}

// Run records the command and replies from the script.
func (f *Fake) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, cmd)

	if len(f.queue) > 0 {
		resp := f.queue[0]
		f.queue = f.queue[1:]
		return resp.Result, resp.Err
	}

	line := strings.Join(cmd.Argv(), " ")
	for _, r := range f.rules {
		if strings.Contains(line, r.substr) {
			return r.resp.Result, r.resp.Err
		}
	}
	return runner.Result{}, nil
}

// CommandLines renders every recorded call as a single space-joined line.
func (f *Fake) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = strings.Join(c.Argv(), " ")
	}
	return lines
}

// CallWith returns the first recorded command whose argv contains substr.
func (f *Fake) CallWith(substr string) (runner.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.Calls {
		if strings.Contains(strings.Join(c.Argv(), " "), substr) {
			return c, nil
		}
	}
	return runner.Command{}, fmt.Errorf("no recorded command contains %q", substr)
}
