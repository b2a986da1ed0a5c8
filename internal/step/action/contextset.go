package action

import (
	"context"
	"fmt"

	"yqhp/pipeline-engine/internal/pipecontext"
	"yqhp/pipeline-engine/internal/step"
)

// ContextSet creates the contextset step.
//
//	contextSet:
//	  target: sourceKey
//
// copies context['sourceKey'] into context['target'].
func ContextSet() step.Step {
	return &contextSetStep{
		BaseStep: step.NewBaseStep("contextset", "Copies values between context keys"),
	}
}

type contextSetStep struct {
	step.BaseStep
}

func (s *contextSetStep) Run(_ context.Context, pctx *pipecontext.Context) error {
	mapping, err := step.RequiredParam[map[string]any](pctx, "contextSet", s.Caller())
	if err != nil {
		return err
	}

	// 先解析全部来源，避免部分写入
	dests := make([]string, 0, len(mapping))
	values := make([]any, 0, len(mapping))
	for _, dest := range sortedKeys(mapping) {
		source, ok := mapping[dest].(string)
		if !ok {
			return step.NewInvalidParamError(s.Caller(), "contextSet",
				fmt.Sprintf("source for '%s' must be a key name, got %T", dest, mapping[dest]))
		}
		if err := pctx.AssertKeyExists(source, s.Caller()); err != nil {
			return err
		}
		dests = append(dests, dest)
		values = append(values, pctx.Value(source))
	}

	pctx.UpdatePairs(dests, values)
	return nil
}

// RegisterContextSet registers the contextset step.
func RegisterContextSet(registry *step.Registry) {
	registry.MustRegister(ContextSet())
}
