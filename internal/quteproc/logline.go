package quteproc

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Python logging levels as emitted in the levelno field.
const (
	LevelDebug    = 10
	LevelInfo     = 20
	LevelWarning  = 30
	LevelError    = 40
	LevelCritical = 50
)

// LogLine is one parsed line of the browser's JSON log output.
type LogLine struct {
	Created   time.Time
	Level     int
	LevelName string
	Category  string
	Module    string
	Function  string
	Line      int
	Message   string
	Traceback string
	Raw       string
}

type jsonLogLine struct {
	Created   float64 `json:"created"`
	LevelNo   int     `json:"levelno"`
	LevelName string  `json:"levelname"`
	Name      string  `json:"name"`
	Module    string  `json:"module"`
	FuncName  string  `json:"funcName"`
	LineNo    int     `json:"lineno"`
	Msg       string  `json:"msg"`
	Traceback string  `json:"traceback"`
}

// ParseLogLine decodes one line of JSON logging output.
func ParseLogLine(raw string) (LogLine, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return LogLine{}, fmt.Errorf("not a JSON log line: %q", raw)
	}

	var data jsonLogLine
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return LogLine{}, fmt.Errorf("invalid JSON log line %q: %w", raw, err)
	}

	sec, frac := math.Modf(data.Created)
	return LogLine{
		Created:   time.Unix(int64(sec), int64(frac*1e9)),
		Level:     data.LevelNo,
		LevelName: data.LevelName,
		Category:  data.Name,
		Module:    data.Module,
		Function:  data.FuncName,
		Line:      data.LineNo,
		Message:   data.Msg,
		Traceback: data.Traceback,
		Raw:       raw,
	}, nil
}

func (l LogLine) String() string {
	s := fmt.Sprintf("%s %-8s %-10s %s:%s:%d %s",
		l.Created.Format("15:04:05.000"), l.LevelName, l.Category, l.Module, l.Function, l.Line, l.Message)
	if l.Traceback != "" {
		s += "\n" + l.Traceback
	}
	return s
}
