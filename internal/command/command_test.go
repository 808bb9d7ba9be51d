package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/cmdschema/internal/model"
)

func testOptions() Options {
	return Options{
		ArgsKeyword:    "args:",
		ArgumentMarker: "RubyCommand.Argument",
		NilLiteral:     "nil",
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	raw := Build(`RubyCommand(commandID: "", methodName: "adb", className: nil, args: [`+
		`RubyCommand.Argument(name: "serial", value: serial), `+
		`RubyCommand.Argument(name: "adb_path", value: "adb")])`, testOptions())

	assert.Equal(t, model.Fields{{Key: "methodName", Value: "adb"}}, raw.Metadata)
	assert.Equal(t, []model.ArgumentPair{
		{Name: "serial", Value: "serial"},
		{Name: "adb_path", Value: `"adb"`},
	}, raw.Arguments)
}

func TestBuildKeepsCommandID(t *testing.T) {
	t.Parallel()

	raw := Build(`RubyCommand(commandID: "42", className: "C", args: [])`, testOptions())
	id, ok := raw.Metadata.Get(CommandIDKey)
	require.True(t, ok)
	assert.Equal(t, "42", id)
	cls, _ := raw.Metadata.Get("className")
	assert.Equal(t, "C", cls)
	assert.Empty(t, raw.Arguments)
}

func TestBuildDropsCommandIDWhenAbsent(t *testing.T) {
	t.Parallel()

	for _, call := range []string{
		`RubyCommand(commandID: "", className: "C", args: [])`,
		`RubyCommand(commandID: nil, className: "C", args: [])`,
		`RubyCommand(className: "C", args: [])`,
	} {
		raw := Build(call, testOptions())
		_, ok := raw.Metadata.Get(CommandIDKey)
		assert.False(t, ok, call)
	}
}

func TestBuildValuesWithCommas(t *testing.T) {
	t.Parallel()

	raw := Build(`RubyCommand(commandID: "", methodName: "sh", args: [`+
		`RubyCommand.Argument(name: "command", value: command.joined(separator: ", ")), `+
		`RubyCommand.Argument(name: "env", value: ["A": "1", "B": "2"])])`, testOptions())

	assert.Equal(t, []model.ArgumentPair{
		{Name: "command", Value: `command.joined(separator: ", ")`},
		{Name: "env", Value: `["A": "1", "B": "2"]`},
	}, raw.Arguments)
}

func TestBuildDropsBrokenDescriptors(t *testing.T) {
	t.Parallel()

	raw := Build(`RubyCommand(commandID: "", args: [`+
		`RubyCommand.Argument(name: "ok", value: ok), `+
		`RubyCommand.Argument(value: orphan), `+
		`RubyCommand.Argument(name: "noValue"), `+
		`somethingElse, `+
		`RubyCommand.Argument(name: "", value: x)])`, testOptions())

	assert.Equal(t, []model.ArgumentPair{{Name: "ok", Value: "ok"}}, raw.Arguments)
}

func TestBuildDuplicateArgumentLastWins(t *testing.T) {
	t.Parallel()

	raw := Build(`RubyCommand(commandID: "", args: [`+
		`RubyCommand.Argument(name: "a", value: first), `+
		`RubyCommand.Argument(name: "b", value: b), `+
		`RubyCommand.Argument(name: "a", value: second)])`, testOptions())

	assert.Equal(t, []model.ArgumentPair{
		{Name: "a", Value: "second"},
		{Name: "b", Value: "b"},
	}, raw.Arguments)
}

func TestBuildWithoutArgs(t *testing.T) {
	t.Parallel()

	raw := Build(`RubyCommand(commandID: "", methodName: "x", className: nil)`, testOptions())
	assert.Equal(t, model.Fields{{Key: "methodName", Value: "x"}}, raw.Metadata)
	assert.Empty(t, raw.Arguments)
}
