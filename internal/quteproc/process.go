// Package quteproc launches the browser under test, parses its JSON log
// output and drives it through IPC commands.
package quteproc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/axs221/qutebrowser/internal/config"
	"github.com/axs221/qutebrowser/internal/logbook"
	"github.com/axs221/qutebrowser/pkg/logging"
)

const subsystem = "quteproc"

const maxLineSize = 1024 * 1024

// Options configure a Process.
type Options struct {
	Browser  config.BrowserConfig
	Timeouts config.Timeouts
	Scenario config.ScenarioConfig

	// Port returns the port of the mock HTTP server, used to turn paths into
	// URLs.
	Port func() int
}

// logCapture feeds stdout and stderr of the browser into the log book.
type logCapture struct {
	stdoutReader *io.PipeReader
	stderrReader *io.PipeReader
	stdoutWriter *io.PipeWriter
	stderrWriter *io.PipeWriter
	wg           sync.WaitGroup
}

func newLogCapture(handle func(string)) *logCapture {
	lc := &logCapture{}
	lc.stdoutReader, lc.stdoutWriter = io.Pipe()
	lc.stderrReader, lc.stderrWriter = io.Pipe()

	lc.wg.Add(2)
	go lc.captureOutput(lc.stdoutReader, handle)
	go lc.captureOutput(lc.stderrReader, handle)
	return lc
}

func (lc *logCapture) captureOutput(reader io.Reader, handle func(string)) {
	defer lc.wg.Done()

	br := bufio.NewReaderSize(reader, 64*1024)
	for {
		line, truncated, err := readLine(br, maxLineSize)
		if truncated {
			logging.Warn(subsystem, "Browser output line longer than %d bytes, truncated", maxLineSize)
		}
		if line != "" {
			handle(line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				logging.Error(subsystem, err, "Failed to read browser output")
			}
			// Keep draining so the browser never blocks on a full pipe.
			_, _ = io.Copy(io.Discard, reader)
			return
		}
	}
}

// readLine reads up to the next newline. Bytes past limit are dropped and
// reported as truncated, so an overlong line still ends up as one (invalid)
// line and the lines after it are read normally.
func readLine(br *bufio.Reader, limit int) (string, bool, error) {
	var buf []byte
	truncated := false
	for {
		chunk, err := br.ReadSlice('\n')
		if room := limit - len(buf); len(chunk) > room {
			buf = append(buf, chunk[:max(room, 0)]...)
			truncated = true
		} else {
			buf = append(buf, chunk...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return strings.TrimRight(string(buf), "\r\n"), truncated, err
	}
}

func (lc *logCapture) close() {
	lc.stdoutWriter.Close()
	lc.stderrWriter.Close()
	lc.wg.Wait()
}

// Process is one browser instance together with everything it logged.
type Process struct {
	opts Options
	log  *logbook.Book[LogLine]

	mu        sync.Mutex
	cmd       *exec.Cmd
	exited    chan struct{}
	exitErr   error
	stopping  bool
	crashed   bool
	ipcSocket string
	invalid   []string
}

// New creates a Process; call Start to launch the browser.
func New(opts Options) *Process {
	if opts.Port == nil {
		opts.Port = func() int { return 0 }
	}
	return &Process{
		opts: opts,
		log:  logbook.New[LogLine](),
	}
}

// Start launches the browser and blocks until it logs the ready message.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.cmd != nil && !isClosed(p.exited) {
		p.mu.Unlock()
		return fmt.Errorf("browser already running with pid %d", p.cmd.Process.Pid)
	}

	cmd := exec.Command(p.opts.Browser.Executable, p.opts.Browser.Args...)
	cmd.Env = os.Environ()
	for k, v := range p.opts.Browser.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	capture := newLogCapture(p.handleLine)
	cmd.Stdout = capture.stdoutWriter
	cmd.Stderr = capture.stderrWriter

	logging.Info(subsystem, "Starting %s %s", p.opts.Browser.Executable, strings.Join(p.opts.Browser.Args, " "))
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		capture.close()
		return fmt.Errorf("failed to start browser: %w", err)
	}

	exited := make(chan struct{})
	p.cmd = cmd
	p.exited = exited
	p.exitErr = nil
	p.stopping = false
	p.crashed = false
	p.ipcSocket = ""
	p.mu.Unlock()

	go func() {
		err := cmd.Wait()
		capture.close()

		p.mu.Lock()
		p.exitErr = err
		if !p.stopping {
			p.crashed = true
			logging.Error(subsystem, err, "Browser (pid %d) exited unexpectedly", cmd.Process.Pid)
		}
		p.mu.Unlock()
		close(exited)
	}()

	return p.waitReady(ctx, exited)
}

func (p *Process) waitReady(ctx context.Context, exited chan struct{}) error {
	readyCtx, cancel := context.WithTimeout(ctx, p.opts.Timeouts.Start)
	defer cancel()

	go func() {
		select {
		case <-exited:
			cancel()
		case <-readyCtx.Done():
		}
	}()

	ready := LogFilter{Message: Glob(p.opts.Browser.ReadyMessage)}
	if _, err := p.log.WaitFor(readyCtx, ready.Matches, false); err != nil {
		if isClosed(exited) {
			return fmt.Errorf("%w during startup: %v", ErrUnexpectedExit, p.exitError())
		}
		_ = p.Terminate()
		return fmt.Errorf("browser did not log %q within %v: %w", p.opts.Browser.ReadyMessage, p.opts.Timeouts.Start, err)
	}

	logging.Debug(subsystem, "Browser ready, IPC socket %s", p.socket())
	return nil
}

func (p *Process) handleLine(raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}

	line, err := ParseLogLine(raw)
	if err != nil {
		p.mu.Lock()
		p.invalid = append(p.invalid, raw)
		p.mu.Unlock()
		logging.Warn(subsystem, "Invalid browser output: %s", raw)
		return
	}

	if line.Category == "ipc" && strings.HasPrefix(line.Message, "Listening as ") {
		p.mu.Lock()
		p.ipcSocket = strings.TrimPrefix(line.Message, "Listening as ")
		p.mu.Unlock()
	}

	logging.Debug("browser", "%s", line)
	p.log.Append(line)
}

// Terminate stops the browser with SIGTERM, killing it after the shutdown
// timeout. It is a no-op if the browser is not running.
func (p *Process) Terminate() error {
	p.mu.Lock()
	cmd := p.cmd
	exited := p.exited
	if cmd == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopping = true
	p.mu.Unlock()

	if isClosed(exited) {
		return nil
	}

	process := cmd.Process
	if err := process.Signal(syscall.SIGTERM); err != nil {
		logging.Debug(subsystem, "SIGTERM failed for pid %d, killing: %v", process.Pid, err)
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to kill browser: %w", err)
		}
	}

	select {
	case <-exited:
		return nil
	case <-time.After(p.opts.Timeouts.Shutdown):
		logging.Warn(subsystem, "Browser (pid %d) ignored SIGTERM for %v, killing", process.Pid, p.opts.Timeouts.Shutdown)
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to kill browser: %w", err)
		}
		<-exited
		return nil
	}
}

// Running reports whether the browser process is alive.
func (p *Process) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil && !isClosed(p.exited)
}

func (p *Process) socket() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ipcSocket
}

func (p *Process) exitError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}

func isClosed(ch chan struct{}) bool {
	if ch == nil {
		return true
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
