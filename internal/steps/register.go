// Package steps holds the step definitions shared by all browser feature
// files. Each handler reaches the browser, the mock server and the clipboard
// through the World stored in the scenario context.
package steps

import (
	"sort"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
)

const (
	given = messages.PickleStepType_CONTEXT
	when  = messages.PickleStepType_ACTION
	then  = messages.PickleStepType_OUTCOME
)

// Definition describes one registered step.
type Definition struct {
	Keyword     string `json:"keyword"`
	Expression  string `json:"expression"`
	Description string `json:"description"`
	stepType    messages.PickleStepType
	step        interface{}
}

var registeredSteps []Definition

func registerStep(stepType messages.PickleStepType, expression, description string, step interface{}) {
	registeredSteps = append(registeredSteps, Definition{
		Keyword:     keywordName(stepType),
		Expression:  expression,
		Description: description,
		stepType:    stepType,
		step:        step,
	})
}

func keywordName(t messages.PickleStepType) string {
	switch t {
	case given:
		return "Given"
	case when:
		return "When"
	default:
		return "Then"
	}
}

// Definitions lists the registered steps sorted by keyword and expression.
func Definitions() []Definition {
	defs := make([]Definition, len(registeredSteps))
	copy(defs, registeredSteps)
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].stepType != defs[j].stepType {
			return keywordOrder(defs[i].stepType) < keywordOrder(defs[j].stepType)
		}
		return defs[i].Expression < defs[j].Expression
	})
	return defs
}

func keywordOrder(t messages.PickleStepType) int {
	switch t {
	case given:
		return 0
	case when:
		return 1
	default:
		return 2
	}
}

// Register binds every step to the scenario under its own keyword. A step
// written under the wrong keyword stays undefined.
func Register(ctx *godog.ScenarioContext) {
	for _, def := range registeredSteps {
		switch def.stepType {
		case given:
			ctx.Given(def.Expression, def.step)
		case when:
			ctx.When(def.Expression, def.step)
		default:
			ctx.Then(def.Expression, def.step)
		}
	}
}
