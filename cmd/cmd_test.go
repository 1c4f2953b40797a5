package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	fabErrors "github.com/conneroisu/fab/internal/errors"
	"github.com/conneroisu/fab/internal/manifest"
)

const testManifest = `blueprints:
  - name: counter
    el: "#counter"
    attrs:
      label: Clicks
    model:
      count: 0
    init:
      - add-class ready
    events:
      "click .inc": model-inc count
      "click .toggle": toggle-class active
`

// setup writes the example page and manifest and points the global
// configuration at them.
func setup(t *testing.T) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "fab.yml")
	pagePath := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(manifestPath, []byte(testManifest), 0o644))
	require.NoError(t, os.WriteFile(pagePath, []byte(examplePage), 0o644))

	viper.Set("manifest.path", manifestPath)
	viper.Set("document.path", pagePath)
	viper.Set("logging.level", "error")

	listFlags.Format = "table"
	constructFlags.Format = "table"
	constructFlags.Attrs = ""
	constructFlags.El = ""
	constructArgs = nil
	triggerFlags.Format = "table"
	triggerFlags.Attrs = ""
	triggerFlags.El = ""
	triggerTarget = ""
	triggerTimes = 1
	triggerPage = false
	versionFormat = "text"
	versionShort = false
	initMinimal = false

	return dir
}

func run(t *testing.T, fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	t.Helper()

	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := fn(cmd, args)
	return out.String(), err
}

func TestList(t *testing.T) {
	setup(t)

	out, err := run(t, runList)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "counter")
	assert.Contains(t, out, "#counter")
	assert.Contains(t, out, "click .inc, click .toggle")
}

func TestListFormats(t *testing.T) {
	setup(t)

	listFlags.Format = "json"
	out, err := run(t, runList)
	require.NoError(t, err)
	var blueprints []manifest.Blueprint
	require.NoError(t, json.Unmarshal([]byte(out), &blueprints))
	require.Len(t, blueprints, 1)
	assert.Equal(t, "counter", blueprints[0].Name)

	listFlags.Format = "yaml"
	out, err = run(t, runList)
	require.NoError(t, err)
	m, err := manifest.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"counter"}, m.Names())
}

func TestListMissingManifest(t *testing.T) {
	dir := setup(t)
	viper.Set("manifest.path", filepath.Join(dir, "missing.yml"))

	_, err := run(t, runList)
	require.Error(t, err)
	assert.True(t, fabErrors.HasCode(err, fabErrors.ErrCodeFileNotFound))
}

func TestConstruct(t *testing.T) {
	setup(t)

	out, err := run(t, runConstruct, "counter")
	require.NoError(t, err)
	assert.Contains(t, out, "counter-1\tcounter\tready")
	assert.Contains(t, out, `id="counter"`)
	assert.Contains(t, out, `class="ready"`)
}

func TestConstructJSON(t *testing.T) {
	setup(t)
	constructFlags.Format = "json"
	constructFlags.Attrs = `{"label":"Hits"}`

	out, err := run(t, runConstruct, "counter")
	require.NoError(t, err)

	var view controllerView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "counter-1", view.ID)
	assert.Equal(t, "Hits", view.Attrs["label"])
	assert.Equal(t, float64(0), view.Data["count"])
	assert.NotEmpty(t, view.Data["guid"])
}

func TestConstructWithoutModels(t *testing.T) {
	setup(t)
	viper.Set("models.enabled", false)
	constructFlags.Format = "json"

	out, err := run(t, runConstruct, "counter")
	require.NoError(t, err)

	var view controllerView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, float64(0), view.Data["count"])
	assert.NotContains(t, view.Data, "guid")
}

func TestConstructErrors(t *testing.T) {
	setup(t)

	_, err := run(t, runConstruct, "missing")
	require.Error(t, err)
	assert.True(t, fabErrors.IsNotFound(err))
	assert.ErrorContains(t, err, "(registered: counter)")
	assert.Equal(t, []string{"counter"}, fabErrors.GetErrorContext(err)["registered"])

	_, err = run(t, runTrigger, "missing", "click")
	require.Error(t, err)
	assert.ErrorContains(t, err, "(registered: counter)")

	constructFlags.El = "#nowhere"
	_, err = run(t, runConstruct, "counter")
	require.Error(t, err)
	assert.True(t, fabErrors.HasCode(err, fabErrors.ErrCodeElementNotFound))
}

func TestTrigger(t *testing.T) {
	setup(t)
	triggerTarget = ".inc"
	triggerTimes = 3
	triggerFlags.Format = "yaml"

	out, err := run(t, runTrigger, "counter", "click")
	require.NoError(t, err)

	var view controllerView
	require.NoError(t, yaml.Unmarshal([]byte(out), &view))
	assert.Equal(t, "ready", view.State)
	assert.EqualValues(t, 3, view.Data["count"])
}

func TestTriggerPage(t *testing.T) {
	setup(t)
	triggerTarget = ".toggle"
	triggerPage = true

	out, err := run(t, runTrigger, "counter", "click")
	require.NoError(t, err)
	assert.Contains(t, out, "<html>")
	assert.Contains(t, out, `class="toggle active"`)
}

func TestTriggerRejectsZeroTimes(t *testing.T) {
	setup(t)
	triggerTimes = 0

	_, err := run(t, runTrigger, "counter", "click")
	assert.ErrorContains(t, err, "--times")
}

func TestValidate(t *testing.T) {
	dir := setup(t)

	out, err := run(t, runValidate)
	require.NoError(t, err)
	assert.Contains(t, out, "1 blueprints OK")

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte(`blueprints:
  - name: ""
  - name: x
    events:
      click: explode
`), 0o644))

	out, err = run(t, runValidate, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problems")
	assert.Contains(t, out, "is invalid")
	assert.Contains(t, out, "blueprints[0].name")
	assert.Contains(t, out, "blueprints[1].events")
}

func TestVersion(t *testing.T) {
	setup(t)

	out, err := run(t, runVersionCommand)
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")

	versionShort = true
	out, err = run(t, runVersionCommand)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	versionFormat = "json"
	out, err = run(t, runVersionCommand)
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")

	versionFormat = "xml"
	_, err = run(t, runVersionCommand)
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	initMinimal = false
	listFlags.Format = "table"
	t.Chdir(t.TempDir())

	out, err := run(t, runInit)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote .fab.yml")
	assert.FileExists(t, ".fab.yml")
	assert.FileExists(t, "fab.yml")
	assert.FileExists(t, "index.html")

	out, err = run(t, runInit)
	require.NoError(t, err)
	assert.Contains(t, out, ".fab.yml exists, skipping")

	// the generated files work together
	viper.SetConfigFile(".fab.yml")
	require.NoError(t, viper.ReadInConfig())
	viper.Set("logging.level", "error")

	out, err = run(t, runList)
	require.NoError(t, err)
	assert.Contains(t, out, "counter")

	triggerTarget = ".inc"
	triggerTimes = 2
	triggerPage = false
	triggerFlags.Format = "json"
	triggerFlags.Attrs = ""
	triggerFlags.El = ""
	out, err = run(t, runTrigger, "counter", "click")
	require.NoError(t, err)
	var view controllerView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, float64(2), view.Data["count"])
}

func TestInitMinimal(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	initMinimal = true
	t.Chdir(t.TempDir())

	_, err := run(t, runInit)
	require.NoError(t, err)
	assert.FileExists(t, ".fab.yml")
	assert.NoFileExists(t, "fab.yml")
}

func TestWatchFilter(t *testing.T) {
	filter := watchFilter("/site/.fab-blueprints.yml")

	tests := []struct {
		path string
		want bool
	}{
		{path: "/site/.fab-blueprints.yml", want: true},
		{path: "/site/fab.yml", want: true},
		{path: "/site/index.html", want: true},
		{path: "/site/.index.html.swp", want: false},
		{path: "/site/fab.yml~", want: false},
		{path: "/site/.hidden.yml", want: false},
		{path: "/site/notes.txt", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, filter(tt.path))
		})
	}
}
