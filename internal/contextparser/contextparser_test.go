package contextparser

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	out, err := List("ham,eggs,bacon")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"argList": []any{"ham", "eggs", "bacon"}}, out)

	out, err = List("spam")
	require.NoError(t, err)
	assert.Equal(t, []any{"spam"}, out["argList"])

	_, err = List("")
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "--context 'spam,eggs'")
}

// TestListProperty: joining argList with commas gives back the argument.
func TestListProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("argList joins back to the argument", prop.ForAll(
		func(arg string) bool {
			if arg == "" {
				return true
			}
			out, err := List(arg)
			if err != nil {
				return false
			}
			list := out["argList"].([]any)
			parts := make([]string, len(list))
			for i, v := range list {
				parts[i] = v.(string)
			}
			return strings.Join(parts, ",") == arg && len(list) == strings.Count(arg, ",")+1
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestJSON(t *testing.T) {
	out, err := JSON(`{"a": 1, "b": [true]}`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out["a"])
	assert.Equal(t, []any{true}, out["b"])

	for _, bad := range []string{"", "[1]", "{"} {
		_, err := JSON(bad)
		assert.True(t, IsParseError(err), bad)
	}
}

func TestYAML(t *testing.T) {
	out, err := YAML("a: 1\nb: [x, y]")
	require.NoError(t, err)
	assert.Equal(t, 1, out["a"])
	assert.Equal(t, []any{"x", "y"}, out["b"])

	for _, bad := range []string{"", "- 1", "a: [", "~"} {
		_, err := YAML(bad)
		assert.True(t, IsParseError(err), bad)
	}
}

func TestKeyValuePairs(t *testing.T) {
	out, err := KeyValuePairs("a=1, b = two ,flag")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1", "b": "two", "flag": ""}, out)

	_, err = KeyValuePairs("=1")
	assert.True(t, IsParseError(err))
	_, err = KeyValuePairs("")
	assert.True(t, IsParseError(err))
}

func TestString(t *testing.T) {
	out, err := String("a,b c")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"argString": "a,b c"}, out)
}

func TestParseAndRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "keyvaluepairs", "list", "string", "yaml"}, Names())

	out, err := Parse("list", "a,b")
	require.NoError(t, err)
	assert.Len(t, out["argList"], 2)

	out, err = Parse("", "")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = Parse("", "x")
	assert.Error(t, err)

	_, err = Parse("nope", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown context parser 'nope'")

	Register("upper", func(arg string) (map[string]any, error) {
		return map[string]any{"up": strings.ToUpper(arg)}, nil
	})
	out, err = Parse("upper", "x")
	require.NoError(t, err)
	assert.Equal(t, "X", out["up"])
}
