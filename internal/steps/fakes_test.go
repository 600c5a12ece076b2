package steps

import (
	"context"
	"fmt"
	"sync"

	"github.com/axs221/qutebrowser/internal/httpbin"
	"github.com/axs221/qutebrowser/internal/quteproc"
)

type fakeBrowser struct {
	mu       sync.Mutex
	calls    []string
	lines    []quteproc.LogLine
	expected []quteproc.LogLine
	session  interface{}
	plain    string
	html     string
	onCmd    func(string)
}

func (b *fakeBrowser) record(format string, args ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
}

func (b *fakeBrowser) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBrowser) Start(context.Context) error { b.record("start"); return nil }
func (b *fakeBrowser) Terminate() error            { b.record("terminate"); return nil }

func (b *fakeBrowser) SendCmd(_ context.Context, command string) error {
	b.record("cmd %s", command)
	if b.onCmd != nil {
		b.onCmd(command)
	}
	return nil
}

func (b *fakeBrowser) SendCmdCount(_ context.Context, command string, count int) error {
	b.record("cmd %s count=%d", command, count)
	return nil
}

func (b *fakeBrowser) SetSetting(_ context.Context, section, option, value string) error {
	b.record("set %s %s %s", section, option, value)
	return nil
}

func (b *fakeBrowser) OpenPath(_ context.Context, path string, newTab bool) error {
	b.record("open %s newTab=%t", path, newTab)
	return nil
}

func (b *fakeBrowser) WaitForLoadFinished(_ context.Context, path string) error {
	b.record("loaded %s", path)
	return nil
}

func (b *fakeBrowser) find(f quteproc.LogFilter) (quteproc.LogLine, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.lines {
		if f.Matches(l) {
			return l, true
		}
	}
	return quteproc.LogLine{}, false
}

func (b *fakeBrowser) WaitFor(_ context.Context, f quteproc.LogFilter) (quteproc.LogLine, error) {
	if l, ok := b.find(f); ok {
		return l, nil
	}
	return quteproc.LogLine{}, fmt.Errorf("timed out waiting for %s", f)
}

func (b *fakeBrowser) MarkExpected(ctx context.Context, f quteproc.LogFilter) error {
	l, err := b.WaitFor(ctx, f)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.expected = append(b.expected, l)
	b.mu.Unlock()
	return nil
}

func (b *fakeBrowser) EnsureNotLogged(_ context.Context, f quteproc.LogFilter) error {
	if l, ok := b.find(f); ok {
		return &quteproc.BlacklistedMessageError{Filter: f, Line: l}
	}
	return nil
}

func (b *fakeBrowser) GetSession(context.Context) (interface{}, error) { return b.session, nil }

func (b *fakeBrowser) GetContent(_ context.Context, plain bool) (string, error) {
	if plain {
		return b.plain, nil
	}
	return b.html, nil
}

func (b *fakeBrowser) PressKeys(_ context.Context, keys string) error {
	b.record("keys %s", keys)
	return nil
}

type fakeRequests struct {
	mu       sync.Mutex
	requests []httpbin.Request
	waited   []string
}

func (r *fakeRequests) Port() int { return 5000 }

func (r *fakeRequests) Requests() []httpbin.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]httpbin.Request(nil), r.requests...)
}

func (r *fakeRequests) WaitFor(_ context.Context, verb, path string) (httpbin.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waited = append(r.waited, verb+" "+path)
	for _, req := range r.requests {
		if req.Verb == verb && req.Path == path {
			return req, nil
		}
	}
	return httpbin.Request{}, fmt.Errorf("no request %s %s", verb, path)
}

func (r *fakeRequests) ExpectNewRequest(_ context.Context, action func() error) (httpbin.Request, error) {
	if err := action(); err != nil {
		return httpbin.Request{}, err
	}
	req := httpbin.Request{Verb: "GET", Path: "/reloaded", Status: 200}
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return req, nil
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) ReadAll() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

func (c *fakeClipboard) set(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

func logLine(category string, level int, function, message string) quteproc.LogLine {
	return quteproc.LogLine{Category: category, Level: level, Function: function, Message: message}
}
