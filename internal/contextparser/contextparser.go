// Package contextparser turns the --context argument of a pipeline run into the
// initial entries of the shared context.
package contextparser

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"
)

// Parser converts a raw context argument into context entries.
type Parser func(arg string) (map[string]any, error)

// ParseError is returned when a context argument cannot be parsed.
type ParseError struct {
	Parser  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("context parser %s: %s: %v", e.Parser, e.Message, e.Cause)
	}
	return fmt.Sprintf("context parser %s: %s", e.Parser, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// IsParseError checks if err is, or wraps, a ParseError.
func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}

var (
	mu      sync.RWMutex
	parsers = map[string]Parser{
		"list":          List,
		"json":          JSON,
		"yaml":          YAML,
		"keyvaluepairs": KeyValuePairs,
		"string":        String,
	}
)

// Register adds or replaces a parser under name.
func Register(name string, p Parser) {
	mu.Lock()
	defer mu.Unlock()
	parsers[name] = p
}

// Get returns the parser registered under name.
func Get(name string) (Parser, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := parsers[name]
	if !ok {
		return nil, fmt.Errorf("unknown context parser '%s' (available: %s)", name, strings.Join(namesLocked(), ", "))
	}
	return p, nil
}

// Names returns the registered parser names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(parsers))
	for name := range parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse runs the named parser. An empty name with an empty argument yields no entries.
func Parse(name, arg string) (map[string]any, error) {
	if name == "" {
		if arg != "" {
			return nil, fmt.Errorf("a context argument was given without a context parser")
		}
		return map[string]any{}, nil
	}
	p, err := Get(name)
	if err != nil {
		return nil, err
	}
	return p(arg)
}

// List splits a comma delimited string into context['argList'].
//
//	"ham,eggs,bacon" -> {argList: [ham eggs bacon]}
func List(arg string) (map[string]any, error) {
	if arg == "" {
		return nil, &ParseError{
			Parser: "list",
			Message: "pipeline must be invoked with --context set. For this list parser " +
				"you're looking for something like --context 'spam,eggs' or --context 'spam'.",
		}
	}
	parts := strings.Split(arg, ",")
	list := make([]any, len(parts))
	for i, p := range parts {
		list[i] = p
	}
	return map[string]any{"argList": list}, nil
}

// JSON parses a JSON object.
func JSON(arg string) (map[string]any, error) {
	if arg == "" {
		return nil, &ParseError{Parser: "json", Message: "pipeline must be invoked with --context set to a JSON object"}
	}
	v, err := oj.ParseString(arg)
	if err != nil {
		return nil, &ParseError{Parser: "json", Message: "invalid JSON", Cause: err}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Parser: "json", Message: fmt.Sprintf("expected a JSON object, got %T", v)}
	}
	return m, nil
}

// YAML parses a YAML mapping.
func YAML(arg string) (map[string]any, error) {
	if arg == "" {
		return nil, &ParseError{Parser: "yaml", Message: "pipeline must be invoked with --context set to a YAML mapping"}
	}
	var m map[string]any
	if err := yaml.Unmarshal([]byte(arg), &m); err != nil {
		return nil, &ParseError{Parser: "yaml", Message: "invalid YAML mapping", Cause: err}
	}
	if m == nil {
		return nil, &ParseError{Parser: "yaml", Message: "expected a YAML mapping"}
	}
	return m, nil
}

// KeyValuePairs parses "k1=v1,k2=v2" into string entries. A pair without '=' sets
// the key to an empty string.
func KeyValuePairs(arg string) (map[string]any, error) {
	if arg == "" {
		return nil, &ParseError{Parser: "keyvaluepairs", Message: "pipeline must be invoked with --context set, e.g. --context 'k1=v1,k2=v2'"}
	}
	out := make(map[string]any)
	for _, pair := range strings.Split(arg, ",") {
		k, v, _ := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, &ParseError{Parser: "keyvaluepairs", Message: fmt.Sprintf("empty key in pair '%s'", pair)}
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// String stores the whole argument in context['argString'].
func String(arg string) (map[string]any, error) {
	if arg == "" {
		return nil, &ParseError{Parser: "string", Message: "pipeline must be invoked with --context set"}
	}
	return map[string]any{"argString": arg}, nil
}
