package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProject = `name: demo
activities:
  - id: design
    duration: 3
    optimistic: 2
    pessimistic: 6
  - id: build
    duration: 4
  - id: docs
    duration: 2
dependencies:
  - predecessor: design
    successor: build
  - predecessor: design
    successor: docs
    type: ss
    lag: 1
`

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

// workspace writes a project and a config pointing baselines at a temp dir.
func workspace(t *testing.T) (projectPath, configPath string) {
	t.Helper()
	dir := t.TempDir()
	projectPath = filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(projectPath, []byte(sampleProject), 0644))

	configPath = filepath.Join(dir, "pmsched.yaml")
	cfg := "log:\n  level: error\nbaseline:\n  dir: " + filepath.Join(dir, "baselines") + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0644))
	return projectPath, configPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCalc(t *testing.T) {
	proj, cfg := workspace(t)

	out, err := run(t, "calc", proj, "--config", cfg, "--waves")
	require.NoError(t, err)
	assert.Contains(t, out, "Project Schedule")
	assert.Contains(t, out, "design → build")
	assert.Contains(t, out, "Wave 3")
}

func TestCalc_JSON(t *testing.T) {
	proj, cfg := workspace(t)

	out, err := run(t, "calc", proj, "--config", cfg, "--json")
	require.NoError(t, err)

	var doc struct {
		Schedule struct {
			ProjectDuration int      `json:"project_duration"`
			CriticalPath    []string `json:"critical_path"`
		} `json:"schedule"`
		Waves []json.RawMessage `json:"waves"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 7, doc.Schedule.ProjectDuration)
	assert.Equal(t, []string{"design", "build"}, doc.Schedule.CriticalPath)
	assert.Len(t, doc.Waves, 3)
}

func TestPath_JSON(t *testing.T) {
	proj, cfg := workspace(t)

	out, err := run(t, "path", proj, "--config", cfg, "--json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.EqualValues(t, 7, doc["project_duration"])
	assert.Equal(t, []any{"design", "build"}, doc["critical_path"])
}

func TestPath(t *testing.T) {
	proj, cfg := workspace(t)

	out, err := run(t, "path", proj, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "design → build")
	assert.Contains(t, out, "7 units")
}

func TestViz(t *testing.T) {
	proj, cfg := workspace(t)

	out, err := run(t, "viz", proj, "--config", cfg, "--format", "dot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph pmsched {"))
	assert.Contains(t, out, `"design" -> "docs" [label="SS+1"];`)

	out, err = run(t, "viz", proj, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "└──→ docs (SS+1)")

	_, err = run(t, "viz", proj, "--config", cfg, "--format", "svg")
	assert.ErrorContains(t, err, "unknown format")
}

func TestSimulate(t *testing.T) {
	proj, cfg := workspace(t)

	out, err := run(t, "simulate", proj, "--config", cfg, "--iterations", "200", "--workers", "2", "--seed", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Schedule Risk Simulation")
	assert.Contains(t, out, "Iterations:  200")
}

func TestBaselineSaveListDiff(t *testing.T) {
	proj, cfg := workspace(t)

	out, err := run(t, "baseline", "save", proj, "--config", cfg, "--name", "kickoff")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved baseline")

	out, err = run(t, "baseline", "list", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "kickoff")

	// The id is the first field of the listing.
	id := strings.Fields(strings.TrimSpace(out))[0]

	slipped := strings.Replace(sampleProject, "duration: 4", "duration: 6", 1)
	require.NoError(t, os.WriteFile(proj, []byte(slipped), 0644))

	out, err = run(t, "baseline", "diff", id, proj, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Baseline Variance")
	assert.Contains(t, out, "changed")
	assert.Contains(t, out, "+2")
}

func TestCalc_Errors(t *testing.T) {
	proj, cfg := workspace(t)

	cyclic := sampleProject + "  - predecessor: build\n    successor: design\n"
	require.NoError(t, os.WriteFile(proj, []byte(cyclic), 0644))
	_, err := run(t, "calc", proj, "--config", cfg)
	assert.ErrorContains(t, err, "circular dependency")

	_, err = run(t, "calc", filepath.Join(t.TempDir(), "missing.yaml"), "--config", cfg)
	assert.Error(t, err)

	_, err = run(t, "calc", proj, "--config", cfg, "--log-level", "loud")
	assert.ErrorContains(t, err, "invalid config")
}
