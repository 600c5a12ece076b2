package suite

import (
	"context"
	"sync"
	"time"

	"github.com/cucumber/godog"
)

type scenarioKey struct{}

// tracker turns godog hook callbacks into ScenarioResults.
type tracker struct {
	mu        sync.Mutex
	start     time.Time
	running   map[string]*ScenarioResult
	stepStart map[string]time.Time
	finished  []ScenarioResult
	reporter  Reporter
}

func newTracker(reporter Reporter) *tracker {
	return &tracker{
		running:   make(map[string]*ScenarioResult),
		stepStart: make(map[string]time.Time),
		reporter:  reporter,
	}
}

func (t *tracker) suiteStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start = time.Now()
	t.finished = nil
}

func (t *tracker) scenarioStarted(ctx context.Context, sc *godog.Scenario) context.Context {
	tags := make([]string, 0, len(sc.Tags))
	for _, tag := range sc.Tags {
		tags = append(tags, tag.Name)
	}

	t.mu.Lock()
	t.running[sc.Id] = &ScenarioResult{
		Name:      sc.Name,
		Feature:   sc.Uri,
		Tags:      tags,
		Result:    ResultPassed,
		StartTime: time.Now(),
	}
	t.mu.Unlock()

	return context.WithValue(ctx, scenarioKey{}, sc.Id)
}

func (t *tracker) stepStarted(ctx context.Context, st *godog.Step) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stepStart[st.Id] = time.Now()
}

func (t *tracker) stepFinished(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) {
	id, _ := ctx.Value(scenarioKey{}).(string)

	t.mu.Lock()
	defer t.mu.Unlock()

	sr, ok := t.running[id]
	if !ok {
		return
	}
	start, ok := t.stepStart[st.Id]
	if !ok {
		start = time.Now()
	}
	delete(t.stepStart, st.Id)

	end := time.Now()
	res := StepResult{
		Text:      st.Text,
		Result:    stepResult(status),
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}
	if err != nil {
		res.Error = err.Error()
	}
	sr.StepResults = append(sr.StepResults, res)
}

func (t *tracker) scenarioFinished(sc *godog.Scenario, err error) {
	t.mu.Lock()
	sr, ok := t.running[sc.Id]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.running, sc.Id)

	sr.EndTime = time.Now()
	sr.Duration = sr.EndTime.Sub(sr.StartTime)
	sr.Result = scenarioResult(sr.StepResults, err)
	if err != nil {
		sr.Error = err.Error()
	}
	result := *sr
	t.finished = append(t.finished, result)
	t.mu.Unlock()

	if t.reporter != nil {
		t.reporter.ReportScenarioResult(result)
	}
}

func (t *tracker) result(status int) SuiteResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	end := time.Now()
	res := SuiteResult{
		StartTime:       t.start,
		EndTime:         end,
		Duration:        end.Sub(t.start),
		Status:          status,
		TotalScenarios:  len(t.finished),
		ScenarioResults: append([]ScenarioResult(nil), t.finished...),
	}
	for _, sr := range t.finished {
		switch sr.Result {
		case ResultPassed:
			res.PassedScenarios++
		case ResultSkipped:
			res.SkippedScenarios++
		default:
			res.FailedScenarios++
		}
	}
	return res
}

func stepResult(status godog.StepResultStatus) Result {
	switch status {
	case godog.StepPassed:
		return ResultPassed
	case godog.StepFailed:
		return ResultFailed
	case godog.StepSkipped:
		return ResultSkipped
	case godog.StepUndefined:
		return ResultUndefined
	case godog.StepPending:
		return ResultPending
	default:
		return ResultFailed
	}
}

// scenarioResult derives a scenario outcome from its steps and the error the
// after-scenario hooks saw.
func scenarioResult(steps []StepResult, err error) Result {
	if err != nil {
		return ResultFailed
	}
	allSkipped := len(steps) > 0
	for _, s := range steps {
		switch s.Result {
		case ResultFailed, ResultUndefined, ResultPending:
			return s.Result
		case ResultPassed:
			allSkipped = false
		}
	}
	if allSkipped {
		return ResultSkipped
	}
	return ResultPassed
}
