package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/blockstate/pkg/jsonop"
	"github.com/stateful/blockstate/pkg/selection"
	"github.com/stateful/blockstate/pkg/state"
)

// testSnapshot is
//
//	root
//	├── a "abc"
//	│   └── a1 "hi"
//	└── b "defg"
const testSnapshot = `{
  "root": {"id": "root", "version": 1, "data": {"type": "ROOT", "parent": "", "children": ["a", "b"]}},
  "a": {"id": "a", "version": 1, "data": {"type": "text", "parent": "root", "children": ["a1"], "delta": [{"insert": "abc"}]}},
  "a1": {"id": "a1", "version": 1, "data": {"type": "text", "parent": "a", "children": [], "delta": [{"insert": "hi"}]}},
  "b": {"id": "b", "version": 1, "data": {"type": "text", "parent": "root", "children": [], "delta": [{"insert": "defg"}]}}
}`

const insertChanges = `[
  {"id": "n1", "ops": [{"p": [], "oi": {"type": "text", "parent": "root", "children": [], "delta": [{"insert": "x"}]}}]},
  {"id": "root", "ops": [{"p": ["children", 2], "li": "n1"}]}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := Root()
	stdout := new(bytes.Buffer)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(new(bytes.Buffer))
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return stdout.String(), err
}

func TestApplyCmd(t *testing.T) {
	snapshot := writeFile(t, "snapshot.json", testSnapshot)
	changes := writeFile(t, "changes.json", insertChanges)

	t.Run("json", func(t *testing.T) {
		outFile := filepath.Join(t.TempDir(), "out.json")
		out, err := execute(t, "", "apply", "--snapshot", snapshot, "--changes", changes, "--out", outFile)
		require.NoError(t, err)

		var result struct {
			ID      string   `json:"id"`
			Inserts []string `json:"inserts"`
			Updates []string `json:"updates"`
			Deletes []string `json:"deletes"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Len(t, result.ID, 6)
		assert.Equal(t, []string{"n1"}, result.Inserts)
		assert.Equal(t, []string{"root"}, result.Updates)
		assert.Equal(t, []string{}, result.Deletes)

		data, err := os.ReadFile(outFile)
		require.NoError(t, err)
		var blocks state.Blocks
		require.NoError(t, json.Unmarshal(data, &blocks))
		require.Contains(t, blocks, "n1")
		assert.Equal(t, "root", blocks["n1"].Data.Parent())
		assert.Equal(t, []string{"a", "b", "n1"}, blocks["root"].Data.Children())
	})

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, insertChanges, "apply", "--snapshot", snapshot, "--changes", "-", "--format", "text")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "transaction "))
		assert.Equal(t, []string{"+ n1", "~ root"}, lines[1:])
	})

	t.Run("initial document", func(t *testing.T) {
		empty := writeFile(t, "empty.json", `[]`)
		out, err := execute(t, "", "apply", "--changes", empty)
		require.NoError(t, err)
		assert.Contains(t, out, `"inserts": []`)
	})

	t.Run("metrics", func(t *testing.T) {
		metricsFile := filepath.Join(t.TempDir(), "metrics.prom")
		_, err := execute(t, "", "apply", "--snapshot", snapshot, "--changes", changes, "--metrics-out", metricsFile)
		require.NoError(t, err)

		data, err := os.ReadFile(metricsFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `blockstate_tree_applies_total{source="user"} 1`)
		assert.Contains(t, string(data), `blockstate_tree_block_changes_total{kind="insert"} 1`)
	})

	t.Run("failure", func(t *testing.T) {
		broken := writeFile(t, "broken.json", `[{"id": "root", "ops": [{"p": ["children", 7], "ld": "x"}]}]`)
		metricsFile := filepath.Join(t.TempDir(), "metrics.prom")
		_, err := execute(t, "", "apply", "--snapshot", snapshot, "--changes", broken, "--source", "program", "--metrics-out", metricsFile)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to apply changes")
		assert.ErrorIs(t, err, jsonop.ErrIndexOutOfRange)

		data, err := os.ReadFile(metricsFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `blockstate_tree_apply_failures_total{source="program"} 1`)
	})

	t.Run("invalid flags", func(t *testing.T) {
		_, err := execute(t, "", "apply", "--changes", changes, "--source", "robot")
		require.ErrorContains(t, err, "invalid source")

		_, err = execute(t, "", "apply", "--changes", changes, "--format", "xml")
		require.ErrorContains(t, err, "invalid format")

		_, err = execute(t, "", "apply")
		require.Error(t, err)
	})

	t.Run("invalid snapshot", func(t *testing.T) {
		noRoot := writeFile(t, "snapshot.json", `{"a": {"id": "a", "version": 1, "data": {"type": "text"}}}`)
		_, err := execute(t, "", "apply", "--snapshot", noRoot, "--changes", changes)
		require.ErrorIs(t, err, state.ErrNoRoot)

		malformed := writeFile(t, "snapshot.json", `{`)
		_, err = execute(t, "", "apply", "--snapshot", malformed, "--changes", changes)
		require.ErrorContains(t, err, "failed to decode snapshot")
	})
}

func TestRebaseCmd(t *testing.T) {
	input := `[
  {"p": ["children", 1], "li": "x"},
  {"p": ["children", 1], "li": "y"},
  {"p": ["children", 3], "ld": "z"},
  {"p": ["title"], "oi": "t"}
]`

	out, err := execute(t, input, "rebase")
	require.NoError(t, err)

	var ops []jsonop.Op
	require.NoError(t, json.Unmarshal([]byte(out), &ops))
	require.Len(t, ops, 4)
	assert.Equal(t, jsonop.Path{"children", 1}, ops[0].P)
	assert.Equal(t, jsonop.Path{"children", 2}, ops[1].P)
	assert.Equal(t, jsonop.Path{"children", 5}, ops[2].P)
	assert.Equal(t, jsonop.Path{"title"}, ops[3].P)

	file := writeFile(t, "ops.json", input)
	fromFile, err := execute(t, "", "rebase", file)
	require.NoError(t, err)
	assert.Equal(t, out, fromFile)

	_, err = execute(t, "[{", "rebase", "-")
	require.ErrorContains(t, err, "failed to decode operations")
}

func TestRangeCmd(t *testing.T) {
	snapshot := writeFile(t, "snapshot.json", testSnapshot)

	out, err := execute(t, "", "range", "--snapshot", snapshot, "--start", "a:1", "--end", "b:2:1", "--backward")
	require.NoError(t, err)

	var r selection.Range
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, []selection.Point{
		selection.TextPoint("a", 1, 0),
		selection.TextPoint("b", 2, 1),
	}, r.Nodes)
	assert.True(t, r.Backward)
	assert.False(t, r.Collapsed)

	out, err = execute(t, "", "range", "--snapshot", snapshot, "--start", "a1", "--end", "missing")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Empty(t, r.Nodes)
	assert.True(t, r.Collapsed)

	_, err = execute(t, "", "range", "--snapshot", snapshot, "--start", "a:x", "--end", "b")
	require.ErrorContains(t, err, "invalid offset")
}

func TestParsePoint(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		in   string
		want selection.Point
	}{
		{"a", selection.BlockPoint("a")},
		{"a:3", selection.TextPoint("a", 3, 0)},
		{"a:3:2", selection.TextPoint("a", 3, 2)},
	} {
		got, err := parsePoint(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, in := range []string{"", ":1", "a:1:2:3", "a:-1", "a:1:b"} {
		_, err := parsePoint(in)
		require.Error(t, err, in)
	}
}

func TestTreeCmd(t *testing.T) {
	snapshot := writeFile(t, "snapshot.json", testSnapshot)

	out, err := execute(t, "", "tree", "--snapshot", snapshot)
	require.NoError(t, err)
	assert.Equal(t, `root ROOT index=-1 length=0 version=1
  a text index=0 length=3 version=1
    a1 text index=0 length=2 version=1
  b text index=1 length=4 version=1
`, out)

	out, err = execute(t, "", "tree", "--snapshot", snapshot, "--order", "bfs")
	require.NoError(t, err)
	var ids []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		ids = append(ids, strings.Fields(line)[0])
	}
	assert.Equal(t, []string{"root", "a", "b", "a1"}, ids)

	_, err = execute(t, "", "tree", "--snapshot", snapshot, "--order", "random")
	require.ErrorContains(t, err, "invalid order")
}

func TestRootFlags(t *testing.T) {
	snapshot := writeFile(t, "snapshot.json", testSnapshot)

	t.Run("config file", func(t *testing.T) {
		cfg := writeFile(t, "custom.toml", "[engine]\nlength_unit = \"grapheme\"\n")
		_, err := execute(t, "", "--config", cfg, "tree", "--snapshot", snapshot)
		require.NoError(t, err)
	})

	t.Run("invalid config file", func(t *testing.T) {
		cfg := writeFile(t, "custom.yaml", "engine:\n  id_strategy: random\n")
		_, err := execute(t, "", "--config", cfg, "tree", "--snapshot", snapshot)
		require.ErrorContains(t, err, "failed to validate config")
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "none.yaml"), "tree", "--snapshot", snapshot)
		require.Error(t, err)
	})

	t.Run("log level", func(t *testing.T) {
		_, err := execute(t, "", "--log-level", "loud", "tree", "--snapshot", snapshot)
		require.ErrorContains(t, err, "unrecognized level")
	})

	t.Run("chdir", func(t *testing.T) {
		_, err := execute(t, "", "--chdir", filepath.Join(t.TempDir(), "missing"), "tree", "--snapshot", snapshot)
		require.ErrorContains(t, err, "failed to change directory")
	})
}
