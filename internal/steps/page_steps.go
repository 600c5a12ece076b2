package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/cucumber/godog"

	"github.com/axs221/qutebrowser/internal/compare"
)

func init() {
	registerStep(then, `^[Tt]he session should look like:$`,
		"Partially match the saved session against YAML; ... matches anything.", theSessionShouldLookLike)
	registerStep(then, `^the header (.+) should be set to (.*)$`,
		"Read a header from the JSON page (the /headers endpoint) and compare it.", theHeaderShouldBeSetTo)
	registerStep(then, `^the page source should look like (.+)$`,
		"Compare the page HTML with a file from the data directory.", thePageSourceShouldLookLike)
}

func theSessionShouldLookLike(ctx context.Context, doc *godog.DocString) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}

	expected, err := compare.ParseExpected(doc.Content)
	if err != nil {
		return err
	}
	session, err := w.Browser.GetSession(ctx)
	if err != nil {
		return err
	}
	if err := compare.Partial(session, expected); err != nil {
		return fmt.Errorf("%w\nsession:\n%s", err, compare.String(session))
	}
	return nil
}

func theHeaderShouldBeSetTo(ctx context.Context, header, value string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}

	content, err := w.Browser.GetContent(ctx, true)
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return fmt.Errorf("page is not JSON: %w\n%s", err, content)
	}

	got, err := jsonpath.Get(fmt.Sprintf("$.headers[%q]", header), doc)
	if err != nil {
		return fmt.Errorf("header %s not found: %w", header, err)
	}
	if fmt.Sprint(got) != value {
		return fmt.Errorf("header %s: expected %q, got %q", header, value, fmt.Sprint(got))
	}
	return nil
}

func thePageSourceShouldLookLike(ctx context.Context, filename string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}

	content, err := w.Browser.GetContent(ctx, false)
	if err != nil {
		return err
	}
	path := filepath.Join(w.DataDir, filepath.Join(strings.Split(filename, "/")...))
	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read expected page source: %w", err)
	}
	if content != string(want) {
		return fmt.Errorf("page source differs from %s (-want +got):\n%s", filename, compare.Diff(content, string(want)))
	}
	return nil
}
