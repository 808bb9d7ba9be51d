package emit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/cmdschema/internal/model"
)

func sampleSchema() *model.Schema {
	var s model.Schema
	s.Put("f", model.FunctionSchema{
		Metadata: model.Fields{{Key: "methodName", Value: "f"}, {Key: "className", Value: "C"}},
		Arguments: []model.NamedArgument{
			{Name: "a", Value: model.ArgumentValue{Descriptor: &model.TypeDescriptor{Type: "string", DefaultValue: "x"}}},
			{Name: "b", Value: model.ArgumentValue{Literal: "Array<String>"}},
			{Name: "c", Value: model.ArgumentValue{Descriptor: &model.TypeDescriptor{Type: "string", IsNullable: true}}},
		},
	})
	return &s
}

func TestJSONCompact(t *testing.T) {
	t.Parallel()

	out, err := JSON(sampleSchema(), false)
	require.NoError(t, err)
	assert.Equal(t, `{"f":{"methodName":"f","className":"C","rubyArguments":{`+
		`"a":{"type":"string","defaultValue":"x","isNullable":false},`+
		`"b":"Array<String>",`+
		`"c":{"type":"string","isNullable":true}}}}`+"\n", string(out))
}

func TestJSONPretty(t *testing.T) {
	t.Parallel()

	var s model.Schema
	s.Put("g", model.FunctionSchema{})
	out, err := JSON(&s, true)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"g\": {\n    \"rubyArguments\": {}\n  }\n}\n", string(out))
}

func TestJSONEmptyDefaults(t *testing.T) {
	t.Parallel()

	var s model.Schema
	s.Put("h", model.FunctionSchema{Arguments: []model.NamedArgument{
		{Name: "list", Value: model.ArgumentValue{Descriptor: &model.TypeDescriptor{Type: "string[]", DefaultValue: []any{}}}},
		{Name: "dict", Value: model.ArgumentValue{Descriptor: &model.TypeDescriptor{Type: "object", DefaultValue: map[string]any{}}}},
		{Name: "flag", Value: model.ArgumentValue{Descriptor: &model.TypeDescriptor{Type: "boolean", DefaultValue: false}}},
	}})
	out, err := JSON(&s, false)
	require.NoError(t, err)

	var decoded map[string]map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	args := decoded["h"]["rubyArguments"]
	assert.Equal(t, []any{}, args["list"]["defaultValue"])
	assert.Equal(t, map[string]any{}, args["dict"]["defaultValue"])
	assert.Equal(t, false, args["flag"]["defaultValue"])
}

func TestJSONDeterministic(t *testing.T) {
	t.Parallel()

	a, err := JSON(sampleSchema(), true)
	require.NoError(t, err)
	b, err := JSON(sampleSchema(), true)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
