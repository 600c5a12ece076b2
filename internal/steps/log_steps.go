package steps

import (
	"context"
	"fmt"
	"regexp"

	"github.com/axs221/qutebrowser/internal/quteproc"
)

func init() {
	registerStep(when, `^I wait for (regex )?"([^"]+)" in the log$`,
		"Wait for a log message, as a glob or a regex.", iWaitForInTheLog)
	registerStep(when, `^I wait for the (error|message|warning) "(.*)"$`,
		"Wait for a message shown to the user and mark it expected.", theMessageShouldBeShown)
	registerStep(then, `^the (error|message|warning) "(.*)" should be shown\.?$`,
		"Mark a message shown to the user as expected; (port) is replaced.", theMessageShouldBeShown)
	registerStep(then, `^"([^"]+)" should not be logged$`,
		"Fail if a matching log message shows up.", shouldNotBeLogged)
	registerStep(then, `^the javascript message "(.*)" should be logged$`,
		"Wait for a JavaScript console message.", theJavascriptMessageShouldBeLogged)
	registerStep(then, `^the javascript message "(.*)" should not be logged$`,
		"Fail if a JavaScript console message shows up.", theJavascriptMessageShouldNotBeLogged)
	registerStep(then, `^(regex )?"([^"]+)" should be logged$`,
		"Wait for a log message, as a glob or a regex.", shouldBeLogged)
}

var messageLevels = map[string]int{
	"message": quteproc.LevelInfo,
	"error":   quteproc.LevelError,
	"warning": quteproc.LevelWarning,
}

func messagePattern(isRegex, pattern string) (quteproc.Pattern, error) {
	if isRegex == "" {
		return quteproc.Glob(pattern), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return re, nil
}

func iWaitForInTheLog(ctx context.Context, isRegex, pattern string) error {
	return shouldBeLogged(ctx, isRegex, pattern)
}

func shouldBeLogged(ctx context.Context, isRegex, pattern string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	p, err := messagePattern(isRegex, pattern)
	if err != nil {
		return err
	}
	_, err = w.Browser.WaitFor(ctx, quteproc.LogFilter{Message: p})
	return err
}

func theMessageShouldBeShown(ctx context.Context, kind, message string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	return w.Browser.MarkExpected(ctx, quteproc.LogFilter{
		Category: "message",
		Level:    messageLevels[kind],
		Message:  quteproc.Glob(w.withPort(message)),
	})
}

func shouldNotBeLogged(ctx context.Context, pattern string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	return w.Browser.EnsureNotLogged(ctx, quteproc.LogFilter{Message: quteproc.Glob(pattern)})
}

func javascriptFilter(message string) quteproc.LogFilter {
	return quteproc.LogFilter{
		Category: "js",
		Function: "javaScriptConsoleMessage",
		Message:  quteproc.Glob("[*] " + message),
	}
}

func theJavascriptMessageShouldBeLogged(ctx context.Context, message string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	_, err = w.Browser.WaitFor(ctx, javascriptFilter(message))
	return err
}

func theJavascriptMessageShouldNotBeLogged(ctx context.Context, message string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	return w.Browser.EnsureNotLogged(ctx, javascriptFilter(message))
}
