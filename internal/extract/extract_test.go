package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/cmdschema/internal/scan"
)

const marker = "RubyCommand("

func TestCallSingleLine(t *testing.T) {
	t.Parallel()

	body := []string{
		`  let x = 1`,
		`  let command = RubyCommand(commandID: "", methodName: "a", className: nil, args: [])`,
		`  _ = runner.executeCommand(command)`,
	}
	got, ok := Call(body, marker)
	require.True(t, ok)
	assert.Equal(t, `RubyCommand(commandID: "", methodName: "a", className: nil, args: [])`, got)
}

func TestCallMultiLine(t *testing.T) {
	t.Parallel()

	body := []string{
		`  let command = RubyCommand(commandID: "", methodName: "adb", className: nil, args: [`,
		`      RubyCommand.Argument(name: "serial", value: serial),`,
		`      RubyCommand.Argument(name: "adb_path", value: adbPath)`,
		`  ])`,
		`  return runner.executeCommand(command)`,
		`}`,
	}
	lines, ok := Lines(body, marker)
	require.True(t, ok)
	require.Len(t, lines, 4)

	got, ok := Call(body, marker)
	require.True(t, ok)
	assert.Equal(t, `RubyCommand(commandID: "", methodName: "adb", className: nil, args: [ `+
		`RubyCommand.Argument(name: "serial", value: serial), `+
		`RubyCommand.Argument(name: "adb_path", value: adbPath) ])`, got)

	opens, closes := scan.Balance(got)
	assert.Equal(t, opens, closes)
}

func TestCallNestedInOtherCall(t *testing.T) {
	t.Parallel()

	body := []string{`  return runner.executeCommand(RubyCommand(commandID: "", args: [])).value`}
	got, ok := Call(body, marker)
	require.True(t, ok)
	assert.Equal(t, `RubyCommand(commandID: "", args: [])`, got)
}

func TestCallIgnoresParensInStrings(t *testing.T) {
	t.Parallel()

	body := []string{
		`  RubyCommand(commandID: ":-(", args: [`,
		`    RubyCommand.Argument(name: "a", value: a)])`,
		`  print("done")`,
	}
	lines, ok := Lines(body, marker)
	require.True(t, ok)
	assert.Len(t, lines, 2)
}

func TestCallUnbalancedRunsToEnd(t *testing.T) {
	t.Parallel()

	body := []string{`RubyCommand(commandID: "",`, `methodName: "x",`}
	got, ok := Call(body, marker)
	require.True(t, ok)
	assert.Equal(t, `RubyCommand(commandID: "", methodName: "x",`, got)
}

func TestCallMissingMarker(t *testing.T) {
	t.Parallel()

	_, ok := Call([]string{"  return 1", "}"}, marker)
	assert.False(t, ok)
}
