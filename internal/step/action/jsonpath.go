package action

import (
	"context"
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"yqhp/pipeline-engine/internal/pipecontext"
	"yqhp/pipeline-engine/internal/step"
)

// JSONPath creates the jsonpath step.
//
//	jsonPath:
//	  source: response      # context key; strings are parsed as JSON
//	  expression: $.items[*].id
//	  to: ids
//	  default: []           # optional, used when nothing matches
//
// A single match is stored as-is, several matches as a list.
func JSONPath() step.Step {
	return &jsonPathStep{
		BaseStep: step.NewBaseStep("jsonpath", "Extracts a value from a context key using a JSONPath expression"),
	}
}

type jsonPathStep struct {
	step.BaseStep
}

func (s *jsonPathStep) Run(_ context.Context, pctx *pipecontext.Context) error {
	cfg, err := step.RequiredParam[map[string]any](pctx, "jsonPath", s.Caller())
	if err != nil {
		return err
	}

	source, err := stringField(cfg, "source", s.Caller())
	if err != nil {
		return err
	}
	expression, err := stringField(cfg, "expression", s.Caller())
	if err != nil {
		return err
	}
	to, err := stringField(cfg, "to", s.Caller())
	if err != nil {
		return err
	}
	defaultVal, hasDefault := cfg["default"]

	if err := pctx.AssertKeyExists(source, s.Caller()); err != nil {
		return err
	}
	data, err := parseData(pctx.Value(source))
	if err != nil {
		return step.NewInvalidParamError(s.Caller(), source, err.Error())
	}

	path, err := jp.ParseString(expression)
	if err != nil {
		return step.NewInvalidParamError(s.Caller(), "jsonPath",
			fmt.Sprintf("invalid JSONPath expression '%s': %v", expression, err))
	}

	results := path.Get(data)
	switch {
	case len(results) == 0 && hasDefault:
		pctx.Set(to, defaultVal)
	case len(results) == 0:
		return fmt.Errorf("JSONPath '%s' returned no results from context['%s']", expression, source)
	case len(results) == 1:
		pctx.Set(to, results[0])
	default:
		pctx.Set(to, results)
	}
	return nil
}

func stringField(cfg map[string]any, field, caller string) (string, error) {
	v, ok := cfg[field].(string)
	if !ok || v == "" {
		return "", step.NewInvalidParamError(caller, "jsonPath", fmt.Sprintf("'%s' must be a non-empty string", field))
	}
	return v, nil
}

// parseData parses JSON text; other values are used as they are.
func parseData(data any) (any, error) {
	switch v := data.(type) {
	case string:
		result, err := oj.ParseString(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return result, nil
	case []byte:
		result, err := oj.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return result, nil
	default:
		return data, nil
	}
}

// RegisterJSONPath registers the jsonpath step.
func RegisterJSONPath(registry *step.Registry) {
	registry.MustRegister(JSONPath())
}
