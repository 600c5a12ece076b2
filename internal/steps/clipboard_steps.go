package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/axs221/qutebrowser/pkg/logging"
)

const clipboardPollInterval = 50 * time.Millisecond

func init() {
	registerStep(when, `^I yank the selected text$`,
		"Yank the selection and wait until the clipboard changes.", iYankTheSelectedText)
	registerStep(then, `^the clipboard should contain:$`,
		"Compare the clipboard with a docstring; each line is stripped.", theClipboardShouldContain)
}

func iYankTheSelectedText(ctx context.Context) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}

	before, err := w.Clipboard.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read clipboard: %w", err)
	}
	if err := w.Browser.SendCmd(ctx, ":yank-selected"); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, w.Timeouts.Clipboard)
	defer cancel()
	ticker := time.NewTicker(clipboardPollInterval)
	defer ticker.Stop()

	for {
		now, err := w.Clipboard.ReadAll()
		if err == nil && now != before {
			return nil
		}
		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// The yanked text may equal the previous clipboard content.
			logging.Warn("steps", "Clipboard did not change within %v", w.Timeouts.Clipboard)
			return nil
		}
	}
}

func theClipboardShouldContain(ctx context.Context, doc *godog.DocString) error {
	w, err := WorldFrom(ctx)
	if err != nil {
		return err
	}

	lines := strings.Split(doc.Content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	want := strings.Join(lines, "\n")

	got, err := w.Clipboard.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read clipboard: %w", err)
	}
	if got != want {
		return fmt.Errorf("clipboard: expected %q, got %q", want, got)
	}
	return nil
}
