package steps

import (
	"context"

	"github.com/cucumber/godog"

	"github.com/axs221/qutebrowser/internal/httpbin"
)

func init() {
	registerStep(when, `^I reload$`,
		"Reload the page and wait for the mock server to see a new request.", iReload)
	registerStep(then, `^(.+) should be loaded$`,
		"Wait for the mock server to get GET /path.", pathShouldBeLoaded)
	registerStep(then, `^[Tt]he requests should be:$`,
		"Compare the recorded requests, in order, with a docstring of paths.", theRequestsShouldBe)
	registerStep(then, `^[Tt]he unordered requests should be:$`,
		"Compare the recorded requests, in any order, with a docstring of paths.", theUnorderedRequestsShouldBe)
}

func iReload(ctx context.Context) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	waitCtx, cancel := w.waitContext(ctx)
	defer cancel()

	_, err = w.Requests.ExpectNewRequest(waitCtx, func() error {
		return w.Browser.SendCmd(ctx, ":reload")
	})
	return err
}

func pathShouldBeLoaded(ctx context.Context, path string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	waitCtx, cancel := w.waitContext(ctx)
	defer cancel()

	_, err = w.Requests.WaitFor(waitCtx, "GET", "/"+path)
	return err
}

func expectedRequests(doc *godog.DocString) []httpbin.ExpectedRequest {
	lines := docLines(doc)
	out := make([]httpbin.ExpectedRequest, 0, len(lines))
	for _, line := range lines {
		out = append(out, httpbin.ParseExpected(line))
	}
	return out
}

func theRequestsShouldBe(ctx context.Context, doc *godog.DocString) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	return httpbin.CompareOrdered(w.Requests.Requests(), expectedRequests(doc))
}

func theUnorderedRequestsShouldBe(ctx context.Context, doc *godog.DocString) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	return httpbin.CompareUnordered(w.Requests.Requests(), expectedRequests(doc))
}
