package gatewayfakes

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-wallet-client/gateway"
)

var _ gateway.Caller = (*FakeCaller)(nil)

// Call records one invocation of the fake.
type Call struct {
	Method string
	Path   string
	Body   any
}

type stubResponse struct {
	body json.RawMessage
	err  error
}

// FakeCaller is a scripted gateway.Caller. Stubs registered for the same
// method/path are consumed in order, the last one sticking, which lets a
// test script e.g. two successive list responses.
type FakeCaller struct {
	lock  sync.Mutex
	stubs map[string][]stubResponse
	calls []Call
}

func NewFakeCaller() *FakeCaller {
	return &FakeCaller{stubs: make(map[string][]stubResponse)}
}

// Stub registers a response for method+path. body may be empty when err is set.
func (fc *FakeCaller) Stub(method, path, body string, err error) {
	fc.lock.Lock()
	defer fc.lock.Unlock()
	key := method + " " + path
	fc.stubs[key] = append(fc.stubs[key], stubResponse{body: json.RawMessage(body), err: err})
}

func (fc *FakeCaller) Call(_ context.Context, method, path string, body any) (json.RawMessage, error) {
	fc.lock.Lock()
	defer fc.lock.Unlock()

	fc.calls = append(fc.calls, Call{Method: method, Path: path, Body: body})

	key := method + " " + path
	queued, ok := fc.stubs[key]
	if !ok || len(queued) == 0 {
		return nil, fmt.Errorf("no stub registered for %s", key)
	}

	stub := queued[0]
	if len(queued) > 1 {
		fc.stubs[key] = queued[1:]
	}
	if stub.err != nil {
		return nil, stub.err
	}
	return stub.body, nil
}

// Calls returns every recorded invocation.
func (fc *FakeCaller) Calls() []Call {
	fc.lock.Lock()
	defer fc.lock.Unlock()
	out := make([]Call, len(fc.calls))
	copy(out, fc.calls)
	return out
}

// CallCount returns the number of calls made for method+path.
func (fc *FakeCaller) CallCount(method, path string) int {
	fc.lock.Lock()
	defer fc.lock.Unlock()
	count := 0
	for _, c := range fc.calls {
		if c.Method == method && c.Path == path {
			count++
		}
	}
	return count
}
