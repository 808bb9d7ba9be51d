package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/cmdschema/internal/config"
	"github.com/phobologic/cmdschema/internal/emit"
	"github.com/phobologic/cmdschema/internal/model"
)

const fastlaneSource = `// This file is generated

import Foundation

func f(a: String = "x")  {
  RubyCommand(commandID: "", className: "C", args: [RubyCommand.Argument(name: "a", value: a)])
}

public func adb(serial: String = "",
                command: String? = nil,
                timeout: Int? = nil,
                paths: [String] = [],
                env: [String: Bool] = [:]) {
  let command = RubyCommand(commandID: "", methodName: "adb", className: nil, args: [
      RubyCommand.Argument(name: "serial", value: serial),
      RubyCommand.Argument(name: "command", value: command),
      RubyCommand.Argument(name: "timeout", value: timeout),
      RubyCommand.Argument(name: "paths", value: paths),
      RubyCommand.Argument(name: "env", value: env),
      RubyCommand.Argument(name: "mode", value: "fast")
  ])
  _ = runner.executeCommand(command)
}

func helper(x: Int) {
  return x + 1
}

func stub() {}
`

func newPipeline(t *testing.T, modify func(*config.Config)) *Pipeline {
	t.Helper()
	cfg := config.Default()
	if modify != nil {
		modify(&cfg)
	}
	p, err := New(cfg, nil)
	require.NoError(t, err)
	return p
}

func descriptor(t *testing.T, fs model.FunctionSchema, arg string) model.TypeDescriptor {
	t.Helper()
	v, ok := fs.Argument(arg)
	require.True(t, ok, "missing argument %s", arg)
	require.NotNil(t, v.Descriptor, "argument %s is a literal", arg)
	return *v.Descriptor
}

func TestRunTwoLineFunction(t *testing.T) {
	t.Parallel()

	s := newPipeline(t, nil).Run(fastlaneSource)
	fs, ok := s.Get("f")
	require.True(t, ok)

	assert.Equal(t, model.TypeDescriptor{Type: "string", DefaultValue: "x"}, descriptor(t, fs, "a"))
	cls, _ := fs.Metadata.Get("className")
	assert.Equal(t, "C", cls)
	_, ok = fs.Metadata.Get("commandID")
	assert.False(t, ok)
}

func TestRunMultiLineCommand(t *testing.T) {
	t.Parallel()

	s := newPipeline(t, nil).Run(fastlaneSource)
	fs, ok := s.Get("adb")
	require.True(t, ok)

	assert.Equal(t, model.Fields{{Key: "methodName", Value: "adb"}}, fs.Metadata)
	assert.Equal(t, model.TypeDescriptor{Type: "string", DefaultValue: ""}, descriptor(t, fs, "serial"))
	assert.Equal(t, model.TypeDescriptor{Type: "string", IsNullable: true}, descriptor(t, fs, "command"))
	assert.Equal(t, model.TypeDescriptor{Type: "string", IsNullable: true}, descriptor(t, fs, "timeout"))
	assert.Equal(t, model.TypeDescriptor{Type: "string[]", DefaultValue: []any{}}, descriptor(t, fs, "paths"))
	assert.Equal(t, model.TypeDescriptor{Type: "object", DefaultValue: map[string]any{}}, descriptor(t, fs, "env"))

	mode, ok := fs.Argument("mode")
	require.True(t, ok)
	assert.Nil(t, mode.Descriptor)
	assert.Equal(t, `"fast"`, mode.Literal)
}

func TestRunDropsFunctionsWithoutCommand(t *testing.T) {
	t.Parallel()

	s := newPipeline(t, nil).Run(fastlaneSource)
	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("helper")
	assert.False(t, ok)
	_, ok = s.Get("stub")
	assert.False(t, ok)
}

func TestRunOrderAndDuplicates(t *testing.T) {
	t.Parallel()

	source := `func b() {
  RubyCommand(commandID: "", methodName: "first", args: [])
}
func a() {
  RubyCommand(commandID: "", methodName: "a", args: [])
}
func b() {
  RubyCommand(commandID: "", methodName: "second", args: [])
}
`
	for _, workers := range []int{1, 4} {
		s := newPipeline(t, func(c *config.Config) { c.Workers = workers }).Run(source)
		require.Equal(t, 2, s.Len())
		assert.Equal(t, "b", s.Entries[0].Name)
		assert.Equal(t, "a", s.Entries[1].Name)
		m, _ := s.Entries[0].Schema.Metadata.Get("methodName")
		assert.Equal(t, "second", m)
	}
}

func TestRunIdempotent(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, nil)
	first, err := emit.JSON(p.Run(fastlaneSource), true)
	require.NoError(t, err)
	second, err := emit.JSON(p.Run(fastlaneSource), true)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestRunFilters(t *testing.T) {
	t.Parallel()

	s := newPipeline(t, func(c *config.Config) { c.Include = []string{"a*"} }).Run(fastlaneSource)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "adb", s.Entries[0].Name)

	s = newPipeline(t, func(c *config.Config) { c.Exclude = []string{"adb"} }).Run(fastlaneSource)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "f", s.Entries[0].Name)
}

func TestRunDistinctIntegerType(t *testing.T) {
	t.Parallel()

	s := newPipeline(t, func(c *config.Config) { c.DistinctIntegerType = true }).Run(fastlaneSource)
	fs, ok := s.Get("adb")
	require.True(t, ok)
	assert.Equal(t, "number", descriptor(t, fs, "timeout").Type)
}

func TestRunEmpty(t *testing.T) {
	t.Parallel()

	s := newPipeline(t, nil).Run("")
	assert.Equal(t, 0, s.Len())
}

func TestNewInvalidPattern(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Exclude = []string{"[oops"}
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestRunNestedCollectionTypes(t *testing.T) {
	t.Parallel()

	const src = `func nested(maps: [[String: Any]] = [], grid: [[Bool]]) {
  RubyCommand(commandID: "", methodName: "nested", args: [
      RubyCommand.Argument(name: "maps", value: maps),
      RubyCommand.Argument(name: "grid", value: grid)
  ])
}
`
	s := newPipeline(t, nil).Run(src)
	fs, ok := s.Get("nested")
	require.True(t, ok)

	assert.Equal(t, model.TypeDescriptor{Type: "object", DefaultValue: "[]"}, descriptor(t, fs, "maps"))
	assert.Equal(t, model.TypeDescriptor{Type: "boolean[]"}, descriptor(t, fs, "grid"))

	data, err := emit.JSON(s, false)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"maps":{"type":"object","defaultValue":"[]","isNullable":false}`)
}
