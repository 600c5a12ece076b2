package httpbin

import (
	"encoding/json"
	"fmt"
	"html"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/axs221/qutebrowser/pkg/logging"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logging.Warn(subsystem, "Failed to write JSON response: %v", err)
	}
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, body)
}

func flatHeaders(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.Header)+1)
	for name, values := range r.Header {
		out[http.CanonicalHeaderKey(name)] = strings.Join(values, ",")
	}
	out["Host"] = r.Host
	return out
}

func flatQuery(r *http.Request) map[string]string {
	out := map[string]string{}
	for k, v := range r.URL.Query() {
		out[k] = strings.Join(v, ",")
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var links []string
	entries, err := os.ReadDir(s.cfg.DataDir)
	if err == nil {
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			links = append(links, fmt.Sprintf(`<li><a href="/data/%s">%s</a></li>`, html.EscapeString(name), html.EscapeString(name)))
		}
	}
	writeHTML(w, "<!DOCTYPE html>\n<html><head><title>httpbin</title></head><body>\n<h1>Test data</h1>\n<ul>\n"+
		strings.Join(links, "\n")+"\n</ul>\n</body></html>\n")
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	path := filepath.Join(s.cfg.DataDir, filepath.FromSlash(filepath.Clean("/"+rel)))

	info, err := os.Stat(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if info.IsDir() {
		index := filepath.Join(path, "index.html")
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		path = index
	}
	http.ServeFile(w, r, path)
}

func handleHeaders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"headers": flatHeaders(r)})
}

func handleUserAgent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"user-agent": r.UserAgent()})
}

func handleIP(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	writeJSON(w, http.StatusOK, map[string]string{"origin": host})
}

func handleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"args":    flatQuery(r),
		"headers": flatHeaders(r),
		"url":     "http://" + r.Host + r.URL.RequestURI(),
	})
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "invalid status code", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
}

func handleRedirect(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		http.Error(w, "invalid redirect count", http.StatusBadRequest)
		return
	}
	target := "/get"
	if n > 1 {
		target = fmt.Sprintf("/redirect/%d", n-1)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func handleRedirectTo(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func handleCookies(w http.ResponseWriter, r *http.Request) {
	cookies := map[string]string{}
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cookies": cookies})
}

func handleSetCookies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		http.SetCookie(w, &http.Cookie{Name: name, Value: query.Get(name), Path: "/"})
	}
	http.Redirect(w, r, "/cookies", http.StatusFound)
}

func handleBasicAuth(w http.ResponseWriter, r *http.Request) {
	wantUser := chi.URLParam(r, "user")
	wantPasswd := chi.URLParam(r, "passwd")

	user, passwd, ok := r.BasicAuth()
	if !ok || user != wantUser || passwd != wantPasswd {
		w.Header().Set("WWW-Authenticate", `Basic realm="Fake Realm"`)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": true, "user": user})
}

func handleHTML(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, `<!DOCTYPE html>
<html>
  <head><title>Herman Melville - Moby-Dick</title></head>
  <body>
    <h1>Herman Melville - Moby-Dick</h1>
    <p>Availing himself of the mild, summer-cool weather that now reigned in these
    latitudes, and in preparation for the peculiarly active pursuits shortly to be
    anticipated, Perth, the begrimed, blistered old blacksmith, had not removed his
    portable forge to the hold again.</p>
  </body>
</html>
`)
}
