package adapter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starhook.dev/pkg/starhook/internal/adapter"
	m "starhook.dev/pkg/starhook/internal/model"
)

func TestYAMLReportStore(t *testing.T) {
	path := m.Path(filepath.Join(t.TempDir(), "report.yaml"))
	store := adapter.NewYAMLReportStore()

	report := m.Report{
		Game: m.GameInfo{
			ID:         "starmade-0.202.108",
			Name:       "StarMade 0.202.108",
			Version:    &m.VersionData{ID: "0.202.108", BuildTime: "20200220_100010"},
			EntryClass: m.DefaultEntryClass,
			Jar:        "StarMade.jar",
			LaunchDir:  ".",
		},
		Mode:       m.ModeInteractive,
		EntryClass: m.DefaultEntryClass,
		Policy:     "exclusive",
		Sites:      []string{"server", "client"},
		Records: []m.PatchRecord{{
			Site:     "server",
			Class:    "obf/Server",
			Method:   "run()V",
			Shape:    m.ShapeRunLoop,
			Rank:     2,
			Hook:     m.DefaultHooks()[m.HookServer],
			Argument: "null",
		}},
		Emitted: []m.EmittedClass{{Name: "obf/Server", Size: 812}},
	}

	require.NoError(t, store.SaveReport(path, report))

	raw, err := os.ReadFile(string(path))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "shape: run_loop")
	assert.Contains(t, string(raw), "owner: net/fabricmc/loader/entrypoint/hooks/EntrypointServer")
	assert.NotContains(t, string(raw), "skipped")

	loaded, err := store.LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, report, loaded)
}

func TestYAMLReportStore_Errors(t *testing.T) {
	dir := t.TempDir()
	store := adapter.NewYAMLReportStore()

	_, err := store.LoadReport(m.Path(filepath.Join(dir, "missing.yaml")))
	assert.ErrorContains(t, err, "failed to read report")

	garbage := filepath.Join(dir, "garbage.yaml")
	require.NoError(t, os.WriteFile(garbage, []byte("records: [unclosed"), 0o644))

	_, err = store.LoadReport(m.Path(garbage))
	assert.ErrorContains(t, err, "failed to decode report")

	err = store.SaveReport(m.Path(filepath.Join(dir, "no", "such", "dir.yaml")), m.Report{})
	assert.ErrorContains(t, err, "failed to write report")
}
