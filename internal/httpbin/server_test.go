package httpbin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axs221/qutebrowser/internal/config"
)

func startServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "numbers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("Hello World!"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "numbers", "1.txt"), []byte("one"), 0o644))

	s := New(config.HTTPBinConfig{Host: "127.0.0.1", DataDir: dir})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

var noRedirect = &http.Client{
	Timeout: 5 * time.Second,
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func get(t *testing.T, s *Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := noRedirect.Get(fmt.Sprintf("http://127.0.0.1:%d%s", s.Port(), path))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServerStartStop(t *testing.T) {
	s := New(config.HTTPBinConfig{})
	assert.Equal(t, 0, s.Port())
	require.NoError(t, s.Start(context.Background()))
	assert.NotZero(t, s.Port())
	assert.Error(t, s.Start(context.Background()), "double start")
	require.NoError(t, s.Stop(context.Background()))
	assert.NoError(t, s.Stop(context.Background()), "stopping twice is fine")
}

func TestDataFiles(t *testing.T) {
	s := startServer(t)

	resp, body := get(t, s, "/data/hello.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello World!", body)

	resp, _ = get(t, s, "/data/missing.txt")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, s, "/data/../../etc/passwd")
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)

	_, body = get(t, s, "/")
	assert.Contains(t, body, `href="/data/hello.txt"`)
	assert.Contains(t, body, `href="/data/numbers/"`)
}

func TestRecordsRequests(t *testing.T) {
	s := startServer(t)

	get(t, s, "/data/hello.txt?foo=bar")
	get(t, s, "/does-not-exist")

	reqs := s.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, Request{Verb: "GET", Path: "/data/hello.txt", Status: 200}, reqs[0])
	assert.Equal(t, Request{Verb: "GET", Path: "/does-not-exist", Status: 404}, reqs[1])

	s.Clear()
	assert.Empty(t, s.Requests())
}

func TestJSONEndpoints(t *testing.T) {
	s := startServer(t)

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("http://127.0.0.1:%d/headers", s.Port()), nil)
	require.NoError(t, err)
	req.Header.Set("x-qute-test", "yes")
	req.Header.Set("User-Agent", "qutebdd")
	resp, err := noRedirect.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var headers struct {
		Headers map[string]string `json:"headers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&headers))
	assert.Equal(t, "yes", headers.Headers["X-Qute-Test"])
	assert.Equal(t, fmt.Sprintf("127.0.0.1:%d", s.Port()), headers.Headers["Host"])

	_, body := get(t, s, "/get?a=1&b=2")
	var got struct {
		Args map[string]string `json:"args"`
		URL  string            `json:"url"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got.Args)
	assert.Contains(t, got.URL, "/get?a=1&b=2")

	_, body = get(t, s, "/ip")
	assert.Contains(t, body, "127.0.0.1")
}

func TestStatusAndRedirects(t *testing.T) {
	s := startServer(t)

	resp, _ := get(t, s, "/status/418")
	assert.Equal(t, 418, resp.StatusCode)
	resp, _ = get(t, s, "/status/abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, s, "/redirect/3")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/redirect/2", resp.Header.Get("Location"))

	resp, _ = get(t, s, "/redirect/1")
	assert.Equal(t, "/get", resp.Header.Get("Location"))

	resp, _ = get(t, s, "/redirect-to?url=/data/hello.txt")
	assert.Equal(t, "/data/hello.txt", resp.Header.Get("Location"))

	resp, _ = get(t, s, "/cookies/set?flavour=oatmeal")
	assert.Equal(t, "/cookies", resp.Header.Get("Location"))
	require.Len(t, resp.Cookies(), 1)
	assert.Equal(t, "oatmeal", resp.Cookies()[0].Value)
}

func TestBasicAuth(t *testing.T) {
	s := startServer(t)
	url := fmt.Sprintf("http://127.0.0.1:%d/basic-auth/user/pass", s.Port())

	resp, _ := get(t, s, "/basic-auth/user/pass")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.SetBasicAuth("user", "pass")
	authed, err := noRedirect.Do(req)
	require.NoError(t, err)
	authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}

func TestWaitFor(t *testing.T) {
	s := startServer(t)

	go func() {
		time.Sleep(20 * time.Millisecond)
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/data/numbers/1.txt", s.Port()))
		if err == nil {
			resp.Body.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := s.WaitFor(ctx, "GET", "data/numbers/1.txt")
	require.NoError(t, err)
	assert.Equal(t, 200, req.Status)

	short, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelShort()
	_, err = s.WaitFor(short, "GET", "/data/numbers/1.txt")
	assert.Error(t, err, "the request was already waited for")
}

func TestExpectNewRequest(t *testing.T) {
	s := startServer(t)
	get(t, s, "/data/hello.txt")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := s.ExpectNewRequest(ctx, func() error {
		go func() {
			resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/data/numbers/1.txt", s.Port()))
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "/data/numbers/1.txt", req.Path)

	_, err = s.ExpectNewRequest(ctx, func() error { return fmt.Errorf("reload failed") })
	assert.EqualError(t, err, "reload failed")
}
