// Package color holds the lipgloss palette used for the run summary.
//
// Colors are adaptive: lipgloss renders the dark or the light variant
// depending on the terminal background. Setting NO_COLOR makes Disabled
// report true, and the reporter then prints plain text.
//
//	fmt.Println(color.PassedStyle.Render("passed"))
package color
