package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/models"
	"github.com/raphaelgruber/relationships/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with fresh flag values.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLIWithEnv(t, nil, args...)
}

func runCLIWithEnv(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("RELATIONSHIPS_LOG_FILE", filepath.Join(t.TempDir(), "relationships.log"))
	t.Setenv("RELATIONSHIPS_LOG_LEVEL", "ERROR")
	t.Setenv("RELATIONSHIPS_WIDGET_FILE", "")
	t.Setenv("RELATIONSHIPS_DIM_OPACITY", "")
	t.Setenv("RELATIONSHIPS_PERMISSIVE_LINKS", "")
	for k, v := range env {
		t.Setenv(k, v)
	}

	verbose, widgetFile = false, ""
	showSet, showIndex, showPlain, showSelect = "", 0, false, false
	validatePermissive = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeWidget(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "widget.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestShow_Plain(t *testing.T) {
	out, err := runCLI(t, "show", "--set", "b", "--index", "1", "--plain")
	require.NoError(t, err)

	assert.Contains(t, out, "  [*] 0 Number one (100%)")
	assert.Contains(t, out, "  [ ] 1 Number two (20%)")
	assert.Contains(t, out, "  [*] 2 Number three (100%)")
	assert.Contains(t, out, "  [*] 1 Even numbers (100%)")
	assert.True(t, strings.HasSuffix(out, "Even numbers\n"))
}

func TestShow_NoSelection(t *testing.T) {
	out, err := runCLI(t, "show", "--plain")
	require.NoError(t, err)
	assert.NotContains(t, out, "[ ]")
	assert.True(t, strings.HasSuffix(out, "Integers\n"))
}

func TestShow_Select(t *testing.T) {
	out, err := runCLI(t, "show", "--set", "a", "--index", "1", "--select", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Selected a[1]: Number two")
}

func TestShow_InvalidSelection(t *testing.T) {
	_, err := runCLI(t, "show", "--set", "a", "--index", "4")
	assert.ErrorIs(t, err, models.ErrInvalidSelection)

	_, err = runCLI(t, "show", "--set", "c")
	assert.Error(t, err)
}

func TestShow_DimOpacityFromEnv(t *testing.T) {
	t.Cleanup(func() { _ = highlight.SetDefaultDimOpacity(highlight.DefaultDimOpacity) })
	path := writeWidget(t, "set1: {items: [One, Two]}\nset2: {items: [X]}\nlinks: [[0, 0]]\n")

	out, err := runCLIWithEnv(t, map[string]string{"RELATIONSHIPS_DIM_OPACITY": "0.5"},
		"show", "-f", path, "--set", "b", "--index", "0", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "  [ ] 1 Two (50%)")

	_, err = runCLIWithEnv(t, map[string]string{"RELATIONSHIPS_DIM_OPACITY": "7"}, "show")
	assert.ErrorIs(t, err, models.ErrInvalidConfiguration)

	_, err = runCLIWithEnv(t, map[string]string{"RELATIONSHIPS_DIM_OPACITY": "abc"}, "show")
	assert.ErrorIs(t, err, models.ErrInvalidConfiguration)
	assert.ErrorContains(t, err, `"abc"`)
}

func TestShow_PermissiveFromEnv(t *testing.T) {
	path := writeWidget(t, "set1: {items: [One]}\nset2: {items: [X]}\nlinks: [[0, 0], [0, 4]]\n")

	_, err := runCLI(t, "show", "-f", path)
	assert.ErrorIs(t, err, models.ErrInvalidConfiguration)

	out, err := runCLIWithEnv(t, map[string]string{"RELATIONSHIPS_PERMISSIVE_LINKS": "true"},
		"show", "-f", path, "--set", "a", "--index", "0", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "  [*] 0 X (100%)")
}

func TestPartners(t *testing.T) {
	out, err := runCLI(t, "partners", "a", "1")
	require.NoError(t, err)
	assert.Equal(t, "0\tOdd numbers\n2\tPrime numbers\n", out)

	out, err = runCLI(t, "partners", "2", "0")
	require.NoError(t, err)
	assert.Equal(t, "1\tNumber two\n3\tNumber four\n", out)

	_, err = runCLI(t, "partners", "a", "x")
	assert.Error(t, err)

	_, err = runCLI(t, "partners", "b", "9")
	assert.ErrorIs(t, err, models.ErrInvalidSelection)
}

func TestPartners_NoLinks(t *testing.T) {
	path := writeWidget(t, "set1: {items: [One]}\nset2: {items: [X]}\n")
	out, err := runCLI(t, "-f", path, "partners", "a", "0")
	require.NoError(t, err)
	assert.Equal(t, "No linked items.\n", out)
}

func TestValidate(t *testing.T) {
	good := writeWidget(t, "set1: {name: nums, items: [One, Two]}\nset2: {items: [X]}\nlinks: [[0, 0], [1, 0]]\n")
	out, err := runCLI(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (strict links)")
	assert.Contains(t, out, "nums       2 items")
	assert.Contains(t, out, "links      2")

	bad := writeWidget(t, "set1: {items: [One]}\nset2: {items: [X]}\nlinks: [[0, 0], [3, 0]]\n")
	_, err = runCLI(t, "validate", bad)
	assert.ErrorIs(t, err, models.ErrInvalidConfiguration)

	out, err = runCLI(t, "validate", bad, "--permissive")
	require.NoError(t, err)
	assert.Contains(t, out, "ok (permissive links)")
	assert.Contains(t, out, "#1 (3,0)")
}

func TestValidate_IgnoresWidgetFromEnv(t *testing.T) {
	broken := writeWidget(t, "set1: [unclosed")
	good := writeWidget(t, "set1: {items: [One]}\nset2: {items: [X]}\nlinks: [[0, 0]]\n")
	env := map[string]string{"RELATIONSHIPS_WIDGET_FILE": broken}

	out, err := runCLIWithEnv(t, env, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (strict links)")

	_, err = runCLIWithEnv(t, env, "show")
	assert.ErrorIs(t, err, models.ErrInvalidConfiguration)
}

func TestExport(t *testing.T) {
	out, err := runCLI(t, "export")
	require.NoError(t, err)

	cfg, err := parser.ParseWidget([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, parser.DemoWidget().SetA, cfg.SetA)
	assert.Contains(t, out, "image_index: 3")

	path := filepath.Join(t.TempDir(), "out.yaml")
	out, err = runCLI(t, "export", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported widget to")
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadWidget_MissingFile(t *testing.T) {
	_, err := runCLI(t, "-f", "/nonexistent/widget.yaml", "show")
	assert.Error(t, err)
}

func newTestBrowser(t *testing.T) browseModel {
	t.Helper()
	w, err := highlight.NewWidget(parser.DemoWidget())
	require.NoError(t, err)
	m, err := newBrowseModel(w)
	require.NoError(t, err)
	return m
}

func press(t *testing.T, m browseModel, keys ...tea.KeyPressMsg) browseModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(browseModel)
	}
	return m
}

func TestBrowseModel_Navigation(t *testing.T) {
	m := newTestBrowser(t)
	assert.True(t, m.decision.Selection.IsNone())
	assert.Equal(t, models.Select(models.SetA, 0), m.cursor)

	right := tea.KeyPressMsg{Code: tea.KeyRight}
	left := tea.KeyPressMsg{Code: tea.KeyLeft}
	tab := tea.KeyPressMsg{Code: tea.KeyTab}

	m = press(t, m, right)
	assert.Equal(t, models.Select(models.SetA, 1), m.decision.Selection)
	assert.Equal(t, []int{0, 2}, m.decision.ActiveB)

	m = press(t, m, left, left)
	assert.Equal(t, 3, m.cursor.Index, "wraps around")

	m = press(t, m, tab)
	assert.Equal(t, models.Select(models.SetB, 2), m.cursor, "clamped to the shorter set")
	assert.Equal(t, []int{1, 2}, m.decision.ActiveA)

	m = press(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.True(t, m.decision.Selection.IsNone())
	assert.NoError(t, m.err)
}

func TestBrowseModel_Select(t *testing.T) {
	m := newTestBrowser(t)
	m = press(t, m, tea.KeyPressMsg{Code: tea.KeyTab}, tea.KeyPressMsg{Code: tea.KeyEnter})

	require.Len(t, *m.selected, 1)
	assert.Equal(t, "b[0] Odd numbers", (*m.selected)[0])
	assert.Contains(t, m.renderContent(), "Selected: b[0] Odd numbers")
}

func TestBrowseModel_EmptySets(t *testing.T) {
	w, err := highlight.NewWidget(highlight.Config{})
	require.NoError(t, err)
	m, err := newBrowseModel(w)
	require.NoError(t, err)

	m = press(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	assert.True(t, m.cursor.IsNone())
	assert.Contains(t, m.renderContent(), "Both sets are empty")

	_, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	assert.NotNil(t, cmd)
}
