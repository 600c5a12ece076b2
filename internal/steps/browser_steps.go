package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

func init() {
	registerStep(given, `^I set (\S+) -> (\S+) to (.*)$`,
		"Change a setting; (port) in the value becomes the mock server port.", iSetSetting)
	registerStep(when, `^I set (\S+) -> (\S+) to (.*)$`,
		"Change a setting; (port) in the value becomes the mock server port.", iSetSetting)
	registerStep(given, `^I open (.+)$`,
		"Open a mock server path in a new tab.", iOpenGiven)
	registerStep(when, `^I open (.+)$`,
		"Open a mock server path in the current tab, or a new one if the path ends with \" in a new tab\".", iOpen)
	registerStep(given, `^I run (.+)$`,
		"Run a command as written.", iRunGiven)
	registerStep(when, `^I run (.+)$`,
		"Run a command; \"cmd with count N\" adds a count and (port) is replaced.", iRun)
	registerStep(given, `^I have a fresh instance$`,
		"Restart the browser.", iHaveAFreshInstance)
	registerStep(when, `^I wait until (.+) is loaded$`,
		"Wait until the browser reports the path finished loading.", iWaitUntilLoaded)
	registerStep(when, `^I wait ([\d.]+)s$`,
		"Sleep for the given number of seconds.", iWaitSeconds)
	registerStep(when, `^I press the keys? "([^"]*)"$`,
		"Send fake key presses.", iPressTheKeys)
	registerStep(then, `^no crash should happen$`,
		"Does nothing; crashes fail the scenario on their own.", noCrashShouldHappen)
}

func iSetSetting(ctx context.Context, section, option, value string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	return w.Browser.SetSetting(ctx, section, option, w.withPort(value))
}

const newTabSuffix = " in a new tab"

func iOpenGiven(ctx context.Context, path string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	return w.Browser.OpenPath(ctx, path, true)
}

func iOpen(ctx context.Context, path string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}

	newTab := false
	if strings.HasSuffix(path, newTabSuffix) {
		path = strings.TrimSuffix(path, newTabSuffix)
		newTab = true
	}
	return w.Browser.OpenPath(ctx, path, newTab)
}

const countSeparator = " with count "

func iRunGiven(ctx context.Context, command string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	return w.Browser.SendCmd(ctx, command)
}

func iRun(ctx context.Context, command string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}

	if cmd, countText, ok := strings.Cut(command, countSeparator); ok {
		count, err := strconv.Atoi(strings.TrimSpace(countText))
		if err != nil {
			return fmt.Errorf("invalid count in %q: %w", command, err)
		}
		return w.Browser.SendCmdCount(ctx, w.withPort(cmd), count)
	}
	return w.Browser.SendCmd(ctx, w.withPort(command))
}

func iHaveAFreshInstance(ctx context.Context) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	if err := w.Browser.Terminate(); err != nil {
		return fmt.Errorf("failed to stop browser: %w", err)
	}
	return w.Browser.Start(ctx)
}

func iWaitUntilLoaded(ctx context.Context, path string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	return w.Browser.WaitForLoadFinished(ctx, path)
}

func iWaitSeconds(ctx context.Context, delay string) error {
	seconds, err := strconv.ParseFloat(delay, 64)
	if err != nil {
		return fmt.Errorf("invalid delay %q: %w", delay, err)
	}

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func iPressTheKeys(ctx context.Context, keys string) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}
	return w.Browser.PressKeys(ctx, keys)
}

func noCrashShouldHappen() error {
	return nil
}
