package suite

import (
	"time"
)

// Result is the outcome of a step or scenario.
type Result string

const (
	ResultPassed    Result = "PASSED"
	ResultFailed    Result = "FAILED"
	ResultSkipped   Result = "SKIPPED"
	ResultUndefined Result = "UNDEFINED"
	ResultPending   Result = "PENDING"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Text      string        `json:"text"`
	Result    Result        `json:"result"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name        string        `json:"name"`
	Feature     string        `json:"feature"`
	Tags        []string      `json:"tags,omitempty"`
	Result      Result        `json:"result"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	StepResults []StepResult  `json:"step_results"`
	Error       string        `json:"error,omitempty"`
}

// SuiteResult summarizes a whole run.
type SuiteResult struct {
	StartTime        time.Time        `json:"start_time"`
	EndTime          time.Time        `json:"end_time"`
	Duration         time.Duration    `json:"duration"`
	Status           int              `json:"status"`
	TotalScenarios   int              `json:"total_scenarios"`
	PassedScenarios  int              `json:"passed_scenarios"`
	FailedScenarios  int              `json:"failed_scenarios"`
	SkippedScenarios int              `json:"skipped_scenarios"`
	ScenarioResults  []ScenarioResult `json:"scenario_results"`
	SetupError       string           `json:"setup_error,omitempty"`
	ReportFile       string           `json:"report_file,omitempty"`
}

// Reporter receives results as the run progresses.
type Reporter interface {
	ReportScenarioResult(result ScenarioResult)
	ReportSuiteResult(result SuiteResult)
}
