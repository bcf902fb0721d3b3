package sessiontest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oraops/oradbctl/internal/session"
)

type rowResponse struct {
	cols []string
	err  error
}

type rowRule struct {
	substr    string
	responses []rowResponse
}

type execRule struct {
	substr string
	err    error
}

// Fake is a scripted Session. Query stubs are matched by substring in
// registration order; repeated stubs for the same substring are consumed in
// FIFO order with the last one sticky, so tests can script values that change
// after a restart.
type Fake struct {
	mu        sync.Mutex
	rowRules  []*rowRule
	execRules []execRule

	// Queries and Execs record statements in invocation order.
	Queries []string
	Execs   []string

	CloseCalls int
}

// StubRow registers the column values returned for queries containing substr.
func (f *Fake) StubRow(substr string, cols ...string) {
	f.stub(substr, rowResponse{cols: cols})
}

// StubRowErr registers an error returned for queries containing substr.
func (f *Fake) StubRowErr(substr string, err error) {
	f.stub(substr, rowResponse{err: err})
}

func (f *Fake) stub(substr string, resp rowResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rowRules {
		if r.substr == substr {
			r.responses = append(r.responses, resp)
			return
		}
	}
	f.rowRules = append(f.rowRules, &rowRule{substr: substr, responses: []rowResponse{resp}})
}

// StubExecErr registers an error for statements containing substr.
func (f *Fake) StubExecErr(substr string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execRules = append(f.execRules, execRule{substr: substr, err: err})
}

// QueryRow replies from the script, assigning columns into dest in order.
func (f *Fake) QueryRow(_ context.Context, query string, dest ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Queries = append(f.Queries, query)

	for _, r := range f.rowRules {
		if !strings.Contains(query, r.substr) {
			continue
		}
		resp := r.responses[0]
		if len(r.responses) > 1 {
			r.responses = r.responses[1:]
		}
		if resp.err != nil {
			return resp.err
		}
		return assign(resp.cols, dest)
	}
	return fmt.Errorf("no stubbed row for query %q", query)
}

// Exec records the statement and replies from the script.
func (f *Fake) Exec(_ context.Context, stmt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Execs = append(f.Execs, stmt)

	for _, r := range f.execRules {
		if strings.Contains(stmt, r.substr) {
			return r.err
		}
	}
	return nil
}

// Close increments CloseCalls.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CloseCalls++
	return nil
}

func assign(cols []string, dest []any) error {
	if len(cols) != len(dest) {
		return fmt.Errorf("stub has %d columns, query wants %d", len(cols), len(dest))
	}
	for i, d := range dest {
		ptr, ok := d.(*string)
		if !ok {
			return fmt.Errorf("destination %d is %T, fake only assigns *string", i, d)
		}
		*ptr = cols[i]
	}
	return nil
}

// FakeFactory hands out a prepared Fake session and records open parameters.
type FakeFactory struct {
	mu      sync.Mutex
	Session *Fake
	Err     error

	Opened []session.Params
}

// Open records the parameters and returns the prepared session.
func (f *FakeFactory) Open(_ context.Context, p session.Params) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Opened = append(f.Opened, p)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Session == nil {
		f.Session = &Fake{}
	}
	return f.Session, nil
}
