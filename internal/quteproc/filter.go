package quteproc

import (
	"fmt"
	"strings"
)

// Pattern matches a log message. *regexp.Regexp satisfies it with search
// semantics; Glob provides full-string matching with * wildcards.
type Pattern interface {
	MatchString(s string) bool
}

// Glob is a full-string pattern where only * is special: it matches any run
// of characters, newlines included.
type Glob string

// MatchString implements Pattern.
func (g Glob) MatchString(s string) bool {
	parts := strings.Split(string(g), "*")
	if len(parts) == 1 {
		return s == parts[0]
	}

	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]

	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return len(s) >= len(last) && strings.HasSuffix(s, last)
}

func (g Glob) String() string { return string(g) }

// LogFilter selects log lines. Empty string fields and a zero Level match
// anything; string fields are Globs.
type LogFilter struct {
	Category string
	Module   string
	Function string
	Level    int
	Message  Pattern
}

// Matches reports whether line satisfies every set field of f.
func (f LogFilter) Matches(line LogLine) bool {
	if f.Category != "" && !Glob(f.Category).MatchString(line.Category) {
		return false
	}
	if f.Module != "" && !Glob(f.Module).MatchString(line.Module) {
		return false
	}
	if f.Function != "" && !Glob(f.Function).MatchString(line.Function) {
		return false
	}
	if f.Level != 0 && f.Level != line.Level {
		return false
	}
	if f.Message != nil && !f.Message.MatchString(line.Message) {
		return false
	}
	return true
}

func (f LogFilter) String() string {
	var parts []string
	if f.Category != "" {
		parts = append(parts, "category="+f.Category)
	}
	if f.Module != "" {
		parts = append(parts, "module="+f.Module)
	}
	if f.Function != "" {
		parts = append(parts, "function="+f.Function)
	}
	if f.Level != 0 {
		parts = append(parts, fmt.Sprintf("level=%d", f.Level))
	}
	if f.Message != nil {
		parts = append(parts, fmt.Sprintf("message=%q", fmt.Sprint(f.Message)))
	}
	if len(parts) == 0 {
		return "any log line"
	}
	return strings.Join(parts, " ")
}
