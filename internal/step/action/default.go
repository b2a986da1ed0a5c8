package action

import (
	"context"
	"sort"

	"yqhp/pipeline-engine/internal/pipecontext"
	"yqhp/pipeline-engine/internal/step"
)

// Default creates the default step: every key in context['defaults'] is set only when
// the context does not have it yet.
func Default() step.Step {
	return &defaultStep{
		BaseStep: step.NewBaseStep("default", "Sets context keys that are not already set"),
	}
}

type defaultStep struct {
	step.BaseStep
}

func (s *defaultStep) Run(_ context.Context, pctx *pipecontext.Context) error {
	defaults, err := step.RequiredParam[map[string]any](pctx, "defaults", s.Caller())
	if err != nil {
		return err
	}

	for _, k := range sortedKeys(defaults) {
		if !pctx.Has(k) {
			pctx.Set(k, defaults[k])
		}
	}
	return nil
}

// RegisterDefault registers the default step.
func RegisterDefault(registry *step.Registry) {
	registry.MustRegister(Default())
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
