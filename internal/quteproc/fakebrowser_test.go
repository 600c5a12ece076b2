package quteproc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	fakeBrowserEnv = "QUTEPROC_FAKE_BROWSER"
	fakeSocketEnv  = "QUTEPROC_FAKE_SOCKET"
)

// fakeBrowser mimics the IPC and logging behaviour of the real browser closely
// enough for the driver: it logs JSON lines and reacts to a handful of
// commands.
type fakeBrowser struct {
	mu  sync.Mutex
	out *os.File
}

func (f *fakeBrowser) log(level int, category, module, function, msg string) {
	names := map[int]string{LevelDebug: "DEBUG", LevelInfo: "INFO", LevelWarning: "WARNING", LevelError: "ERROR"}
	data, _ := json.Marshal(map[string]interface{}{
		"created":   float64(time.Now().UnixNano()) / 1e9,
		"levelno":   level,
		"levelname": names[level],
		"name":      category,
		"module":    module,
		"funcName":  function,
		"lineno":    1,
		"msg":       msg,
		"traceback": "",
	})
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintln(f.out, string(data))
}

func (f *fakeBrowser) raw(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintln(f.out, s)
}

func runFakeBrowser() int {
	f := &fakeBrowser{out: os.Stderr}
	socket := os.Getenv(fakeSocketEnv)

	_ = os.Remove(socket)
	ln, err := net.Listen("unix", socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer ln.Close()

	f.log(LevelDebug, "ipc", "ipc", "listen", "Listening as "+socket)
	f.log(LevelDebug, "init", "app", "init", "Init done!")

	for {
		conn, err := ln.Accept()
		if err != nil {
			return 1
		}
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var msg ipcMessage
			if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
				f.log(LevelError, "ipc", "ipc", "handle", "invalid json: "+err.Error())
				continue
			}
			for _, arg := range msg.Args {
				f.handle(arg)
			}
		}
		conn.Close()
	}
}

func splitCount(command string) string {
	command = strings.TrimPrefix(command, ":")
	if idx := strings.Index(command, ":"); idx > 0 {
		if _, err := strconv.Atoi(command[:idx]); err == nil {
			return command[idx+1:]
		}
	}
	return command
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}

func (f *fakeBrowser) handle(command string) {
	command = splitCount(command)
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "crash":
		os.Exit(3)
	case "garbage":
		f.raw("this is not json")
	}

	f.log(LevelDebug, "commands", "command", "run", "command called: "+command)

	switch fields[0] {
	case "set":
		f.log(LevelDebug, "config", "config", "set", "Config option changed: "+strings.Join(fields[1:], " "))
	case "open":
		url := fields[len(fields)-1]
		f.log(LevelDebug, "webview", "webview", "on_load_status_changed",
			fmt.Sprintf("load status for <qutebrowser.browser.webview.WebView tab_id=0 url='%s'>: LoadStatus.success", url))
	case "session-save":
		path := unquote(fields[1])
		_ = os.WriteFile(path, []byte("windows:\n- tabs:\n  - history:\n    - url: about:blank\n"), 0o600)
		f.log(LevelInfo, "message", "message", "info", "Saved session "+path+".")
	case "debug-dump-page":
		plain := fields[1] == "--plain"
		path := unquote(fields[len(fields)-1])
		content := "<html><body>hello</body></html>"
		if plain {
			content = "hello"
		}
		_ = os.WriteFile(path, []byte(content), 0o600)
		f.log(LevelInfo, "message", "message", "info", "Dumped page to "+path+".")
	case "message-error":
		f.log(LevelError, "message", "message", "error", strings.Join(fields[1:], " "))
	case "message-warning":
		f.log(LevelWarning, "message", "message", "warning", strings.Join(fields[1:], " "))
	}
}
