package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/axs221/qutebrowser/internal/color"
	"github.com/axs221/qutebrowser/internal/steps"
)

func newStepsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List the step definitions available to feature files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(steps.Definitions())
			}
			printSteps(cmd.OutOrStdout(), steps.Definitions(), color.Disabled())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the steps as JSON")
	return cmd
}

func printSteps(out io.Writer, defs []steps.Definition, plain bool) {
	keywordWidth, exprWidth := 0, 0
	for _, d := range defs {
		keywordWidth = max(keywordWidth, runewidth.StringWidth(d.Keyword))
		exprWidth = max(exprWidth, runewidth.StringWidth(d.Expression))
	}

	for _, d := range defs {
		keyword := runewidth.FillRight(d.Keyword, keywordWidth)
		if !plain {
			keyword = color.HeaderStyle.Render(keyword)
		}
		fmt.Fprintf(out, "%s  %s  %s\n", keyword, runewidth.FillRight(d.Expression, exprWidth), d.Description)
	}
}
