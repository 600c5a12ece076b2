package httpbin

import (
	"fmt"
	"sort"
	"strings"
)

// Request is one request seen by the mock server.
type Request struct {
	Verb   string
	Path   string
	Status int
}

// Expected drops the status so the request can be compared with expectations.
func (r Request) Expected() ExpectedRequest {
	return ExpectedRequest{Verb: r.Verb, Path: r.Path}
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s -> %d", r.Verb, r.Path, r.Status)
}

// ExpectedRequest is what a scenario expects the browser to have requested.
type ExpectedRequest struct {
	Verb string
	Path string
}

func (e ExpectedRequest) String() string {
	return e.Verb + " " + e.Path
}

// ParseExpected turns one line of a requests docstring into an expectation.
// A bare path means GET; "POST /foo" names the verb explicitly.
func ParseExpected(line string) ExpectedRequest {
	line = strings.TrimSpace(line)
	if verb, path, ok := strings.Cut(line, " "); ok && isVerb(verb) {
		return ExpectedRequest{Verb: verb, Path: normalizePath(strings.TrimSpace(path))}
	}
	return ExpectedRequest{Verb: "GET", Path: normalizePath(line)}
}

func normalizePath(path string) string {
	return "/" + strings.TrimPrefix(path, "/")
}

func isVerb(s string) bool {
	switch s {
	case "GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS":
		return true
	}
	return false
}

func expectedOf(requests []Request) []ExpectedRequest {
	out := make([]ExpectedRequest, 0, len(requests))
	for _, r := range requests {
		out = append(out, r.Expected())
	}
	return out
}

// CompareOrdered fails unless actual holds exactly the expected requests in
// the same order.
func CompareOrdered(actual []Request, expected []ExpectedRequest) error {
	got := expectedOf(actual)
	if len(got) == len(expected) {
		same := true
		for i := range got {
			if got[i] != expected[i] {
				same = false
				break
			}
		}
		if same {
			return nil
		}
	}
	return fmt.Errorf("requests differ\nexpected:\n%s\ngot:\n%s", formatList(expected), formatList(got))
}

// CompareUnordered fails unless actual and expected hold the same requests,
// counting duplicates, in any order.
func CompareUnordered(actual []Request, expected []ExpectedRequest) error {
	got := expectedOf(actual)

	counts := make(map[ExpectedRequest]int, len(expected))
	for _, e := range expected {
		counts[e]++
	}
	for _, g := range got {
		counts[g]--
	}

	var missing, extra []ExpectedRequest
	for req, n := range counts {
		for ; n > 0; n-- {
			missing = append(missing, req)
		}
		for ; n < 0; n++ {
			extra = append(extra, req)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}

	sortRequests(missing)
	sortRequests(extra)
	return fmt.Errorf("requests differ\nmissing:\n%s\nunexpected:\n%s", formatList(missing), formatList(extra))
}

func sortRequests(reqs []ExpectedRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Path != reqs[j].Path {
			return reqs[i].Path < reqs[j].Path
		}
		return reqs[i].Verb < reqs[j].Verb
	})
}

func formatList(reqs []ExpectedRequest) string {
	if len(reqs) == 0 {
		return "  (none)"
	}
	lines := make([]string, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, "  "+r.String())
	}
	return strings.Join(lines, "\n")
}
