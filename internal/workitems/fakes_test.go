package workitems

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
)

// fakeGraphQL scripts GraphQL responses per operation name and records
// every call for assertions.
type fakeGraphQL struct {
	mu        sync.Mutex
	responses map[string]string // op -> data JSON
	errs      map[string]error  // op -> forced error
	calls     []gqlCall
	block     chan struct{} // when set, calls wait here before answering
}

type gqlCall struct {
	op   string
	vars map[string]any
}

func (f *fakeGraphQL) GraphQL(ctx context.Context, op, query string, vars map[string]any) (json.RawMessage, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls = append(f.calls, gqlCall{op: op, vars: vars})
	f.mu.Unlock()

	if err, ok := f.errs[op]; ok {
		return nil, err
	}
	if resp, ok := f.responses[op]; ok {
		return json.RawMessage(resp), nil
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeGraphQL) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeGraphQL) lastCall() gqlCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return gqlCall{}
	}
	return f.calls[len(f.calls)-1]
}

// fakeREST records REST calls and plays back a scripted body.
type fakeREST struct {
	calls []restCall
	body  string // JSON decoded into out when non-empty
	err   error
}

type restCall struct {
	method string
	path   string
	query  url.Values
	body   any
}

func (f *fakeREST) REST(ctx context.Context, method, path string, query url.Values, body, out any) error {
	f.calls = append(f.calls, restCall{method: method, path: path, query: query, body: body})
	if f.err != nil {
		return f.err
	}
	if out != nil && f.body != "" {
		return json.Unmarshal([]byte(f.body), out)
	}
	return nil
}
