package quteproc

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/axs221/qutebrowser/internal/logbook"
	"github.com/axs221/qutebrowser/pkg/logging"
)

// SendCmd sends a command through IPC and waits until the browser logs that
// it ran.
func (p *Process) SendCmd(ctx context.Context, command string) error {
	return p.sendCmd(ctx, command)
}

// SendCmdCount sends a command with a count prefix, like `:3:scroll down`.
func (p *Process) SendCmdCount(ctx context.Context, command string, count int) error {
	return p.sendCmd(ctx, fmt.Sprintf(":%d:%s", count, strings.TrimLeft(command, ":")))
}

func (p *Process) sendCmd(ctx context.Context, command string) error {
	if !p.Running() {
		return fmt.Errorf("cannot send %q: %w", command, ErrNotRunning)
	}
	socket := p.socket()
	if socket == "" {
		return ErrNoIPCSocket
	}

	logging.Debug(subsystem, "Sending command %s", command)
	if err := sendIPC(ctx, socket, newIPCMessage(p.opts.Browser.IPCVersion, command)); err != nil {
		return err
	}

	_, err := p.WaitFor(ctx, LogFilter{
		Category: "commands",
		Module:   "command",
		Function: "run",
		Message:  Glob("command called: *"),
	})
	return err
}

// SetSetting changes a config option and waits for the change to be logged.
func (p *Process) SetSetting(ctx context.Context, section, option, value string) error {
	if err := p.SendCmd(ctx, fmt.Sprintf(":set %q %q %q", section, option, value)); err != nil {
		return err
	}
	_, err := p.WaitFor(ctx, LogFilter{Category: "config", Message: Glob("Config option changed: *")})
	return err
}

// PathToURL turns a path on the mock HTTP server into a full URL. Absolute
// URLs such as about:blank are returned unchanged.
func (p *Process) PathToURL(path string) string {
	if u, err := neturl.Parse(path); err == nil && u.Scheme != "" {
		return path
	}
	return fmt.Sprintf("http://localhost:%d/%s", p.opts.Port(), strings.TrimPrefix(path, "/"))
}

// OpenPath opens path from the mock server, optionally in a new tab, and
// waits for it to finish loading.
func (p *Process) OpenPath(ctx context.Context, path string, newTab bool) error {
	url := p.PathToURL(path)
	command := ":open " + url
	if newTab {
		command = ":open -t " + url
	}
	if err := p.SendCmd(ctx, command); err != nil {
		return err
	}
	return p.WaitForLoadFinished(ctx, path)
}

// WaitForLoadFinished waits until the page for path reports a successful load.
func (p *Process) WaitForLoadFinished(ctx context.Context, path string) error {
	pattern := regexp.MustCompile(`^load status for <.* url='` + regexp.QuoteMeta(p.PathToURL(path)) + `'>: LoadStatus\.success$`)
	_, err := p.WaitFor(ctx, LogFilter{Message: pattern})
	return err
}

// WaitFor blocks until a line matching f is logged that was not waited for
// before.
func (p *Process) WaitFor(ctx context.Context, f LogFilter) (LogLine, error) {
	e, err := p.waitFor(ctx, f, false)
	return e.Value, err
}

func (p *Process) waitFor(ctx context.Context, f LogFilter, includeWaited bool) (logbook.Entry[LogLine], error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.opts.Timeouts.Wait)
	defer cancel()

	e, err := p.log.WaitFor(waitCtx, f.Matches, includeWaited)
	if err != nil {
		if errors.Is(err, logbook.ErrTimeout) {
			return e, fmt.Errorf("timed out after %v waiting for %s: %w", p.opts.Timeouts.Wait, f, err)
		}
		return e, err
	}
	return e, nil
}

// MarkExpected waits for a matching line and flags it so it does not fail the
// scenario even if it is a warning or an error.
func (p *Process) MarkExpected(ctx context.Context, f LogFilter) error {
	e, err := p.waitFor(ctx, f, false)
	if err != nil {
		return err
	}
	p.log.Expect(e.ID)
	return nil
}

// EnsureNotLogged fails if a line matching f shows up, including lines that
// were already waited for, within the not-logged timeout.
func (p *Process) EnsureNotLogged(ctx context.Context, f LogFilter) error {
	waitCtx, cancel := context.WithTimeout(ctx, p.opts.Timeouts.NotLogged)
	defer cancel()

	e, err := p.log.WaitFor(waitCtx, f.Matches, true)
	if errors.Is(err, logbook.ErrTimeout) {
		return nil
	}
	if err != nil {
		return err
	}
	return &BlacklistedMessageError{Filter: f, Line: e.Value}
}

// GetSession saves the session to a temporary file and returns it decoded.
func (p *Process) GetSession(ctx context.Context) (interface{}, error) {
	dir, err := os.MkdirTemp("", "qutebdd-session-")
	if err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "session.yml")
	if err := p.SendCmd(ctx, fmt.Sprintf(":session-save %q", path)); err != nil {
		return nil, err
	}
	if _, err := p.WaitFor(ctx, LogFilter{
		Category: "message",
		Level:    LevelInfo,
		Message:  Glob("Saved session " + path + "."),
	}); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var session interface{}
	if err := yaml.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", path, err)
	}
	return session, nil
}

// GetContent dumps the current page, as plain text or as HTML.
func (p *Process) GetContent(ctx context.Context, plain bool) (string, error) {
	f, err := os.CreateTemp("", "qutebdd-page-")
	if err != nil {
		return "", fmt.Errorf("failed to create page dump file: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	command := fmt.Sprintf(":debug-dump-page %q", path)
	if plain {
		command = fmt.Sprintf(":debug-dump-page --plain %q", path)
	}
	if err := p.SendCmd(ctx, command); err != nil {
		return "", err
	}
	if _, err := p.WaitFor(ctx, LogFilter{
		Category: "message",
		Level:    LevelInfo,
		Message:  Glob("Dumped page to " + path + "."),
	}); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read page dump: %w", err)
	}
	return string(data), nil
}

// PressKeys sends fake key presses to the focused widget.
func (p *Process) PressKeys(ctx context.Context, keys string) error {
	return p.SendCmd(ctx, fmt.Sprintf(":fake-key -g %q", keys))
}

// BeforeScenario forgets the previous scenario's output and runs the
// configured setup commands.
func (p *Process) BeforeScenario(ctx context.Context) error {
	p.log.Clear()
	p.mu.Lock()
	p.invalid = nil
	p.mu.Unlock()

	for _, command := range p.opts.Scenario.BeforeCommands {
		if err := p.SendCmd(ctx, command); err != nil {
			return fmt.Errorf("setup command %q failed: %w", command, err)
		}
	}
	return nil
}

// AfterScenario runs the cleanup commands and then checks the scenario's log.
// A failed scenario skips the log checks since its own error is reported.
func (p *Process) AfterScenario(ctx context.Context, failed bool) error {
	var cleanupErr error
	if p.Running() {
		for _, command := range p.opts.Scenario.AfterCommands {
			if err := p.SendCmd(ctx, command); err != nil {
				cleanupErr = fmt.Errorf("cleanup command %q failed: %w", command, err)
				break
			}
		}
	}
	if failed {
		return nil
	}

	p.mu.Lock()
	crashed := p.crashed
	exitErr := p.exitErr
	invalid := append([]string(nil), p.invalid...)
	p.mu.Unlock()

	if crashed {
		return fmt.Errorf("%w: %v", ErrUnexpectedExit, exitErr)
	}
	if len(invalid) > 0 {
		return &InvalidOutputError{Lines: invalid}
	}

	bad := p.log.Unexpected(func(l LogLine) bool {
		return l.Level > LevelInfo && !p.ignored(l)
	})
	if len(bad) > 0 {
		lines := make([]LogLine, 0, len(bad))
		for _, e := range bad {
			lines = append(lines, e.Value)
		}
		return &UnexpectedLogError{Lines: lines}
	}
	return cleanupErr
}

func (p *Process) ignored(l LogLine) bool {
	for _, pattern := range p.opts.Browser.IgnoredMessages {
		if Glob(pattern).MatchString(l.Message) {
			return true
		}
	}
	return false
}

// Crashed reports whether the browser exited without Terminate being called.
func (p *Process) Crashed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.crashed
}
