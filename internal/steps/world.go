package steps

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/cucumber/godog"

	"github.com/axs221/qutebrowser/internal/config"
	"github.com/axs221/qutebrowser/internal/httpbin"
	"github.com/axs221/qutebrowser/internal/quteproc"
)

// Browser is the part of the browser driver the steps use.
type Browser interface {
	Start(ctx context.Context) error
	Terminate() error
	SendCmd(ctx context.Context, command string) error
	SendCmdCount(ctx context.Context, command string, count int) error
	SetSetting(ctx context.Context, section, option, value string) error
	OpenPath(ctx context.Context, path string, newTab bool) error
	WaitForLoadFinished(ctx context.Context, path string) error
	WaitFor(ctx context.Context, f quteproc.LogFilter) (quteproc.LogLine, error)
	MarkExpected(ctx context.Context, f quteproc.LogFilter) error
	EnsureNotLogged(ctx context.Context, f quteproc.LogFilter) error
	GetSession(ctx context.Context) (interface{}, error)
	GetContent(ctx context.Context, plain bool) (string, error)
	PressKeys(ctx context.Context, keys string) error
}

// RequestLog is the part of the mock server the steps use.
type RequestLog interface {
	Port() int
	Requests() []httpbin.Request
	WaitFor(ctx context.Context, verb, path string) (httpbin.Request, error)
	ExpectNewRequest(ctx context.Context, action func() error) (httpbin.Request, error)
}

// Clipboard reads the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
}

// SystemClipboard reads the real clipboard.
type SystemClipboard struct{}

// ReadAll implements Clipboard.
func (SystemClipboard) ReadAll() (string, error) {
	return clipboard.ReadAll()
}

// World holds the collaborators of one scenario.
type World struct {
	Browser   Browser
	Requests  RequestLog
	Clipboard Clipboard
	DataDir   string
	Timeouts  config.Timeouts
}

type worldKey struct{}

// ErrNoWorld is returned by steps run without a World in their context.
var ErrNoWorld = errors.New("no world in scenario context")

// WithWorld stores w in ctx.
func WithWorld(ctx context.Context, w *World) context.Context {
	return context.WithValue(ctx, worldKey{}, w)
}

// WorldFrom returns the World stored in ctx.
func WorldFrom(ctx context.Context) (*World, error) {
	w, ok := ctx.Value(worldKey{}).(*World)
	if !ok || w == nil {
		return nil, ErrNoWorld
	}
	return w, nil
}

// withPort replaces the literal "(port)" with the mock server port.
func (w *World) withPort(s string) string {
	return strings.ReplaceAll(s, "(port)", strconv.Itoa(w.Requests.Port()))
}

// waitContext bounds waits on the mock server and the clipboard, which have
// no timeout of their own.
func (w *World) waitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, w.Timeouts.Wait)
}

// docLines splits a docstring into stripped lines, dropping blank ones.
func docLines(doc *godog.DocString) []string {
	if doc == nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(doc.Content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
