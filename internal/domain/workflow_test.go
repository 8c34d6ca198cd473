package domain_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"starhook.dev/pkg/starhook/internal/adapter"
	adaptermocks "starhook.dev/pkg/starhook/internal/adapter/mocks"
	"starhook.dev/pkg/starhook/internal/bytecode"
	"starhook.dev/pkg/starhook/internal/controller"
	controllermocks "starhook.dev/pkg/starhook/internal/controller/mocks"
	"starhook.dev/pkg/starhook/internal/domain"
	"starhook.dev/pkg/starhook/internal/domain/hooksites"
	m "starhook.dev/pkg/starhook/internal/model"
)

// gameJar writes a small game: a Starter whose launchers build obf/Server,
// obf/Client and obf/Menu.
func gameJar(t *testing.T) m.Path {
	t.Helper()

	starter := newStarter(t, launchers{server: "obf/Server", client: "obf/Client", menu: "obf/Menu"})

	server := bytecode.NewClassNode("obf/Server", objectName)
	constructor(t, server, "(Z)V")
	runLoop(t, server)

	client := bytecode.NewClassNode("obf/Client", objectName)
	constructor(t, client, clientCtorDesc)
	runLoop(t, client)

	menu := bytecode.NewClassNode("obf/Menu", objectName)
	constructor(t, menu, "()V")

	path := filepath.Join(t.TempDir(), "StarMade.jar")
	writeJar(t, path, map[string]string{m.VersionFile: "0.202.108#20200220_100010"},
		starter, server, client, menu)

	return m.Path(path)
}

func inMode(mode controller.StartMode) interface{} {
	return mock.MatchedBy(func(opt controller.StartOption) bool {
		return controller.NewStartConfig(opt).Mode() == mode
	})
}

func expectShow(ui *controllermocks.MockUI, mode controller.StartMode) {
	ui.EXPECT().Start(mock.Anything, inMode(mode)).Return(nil).Once()
	ui.EXPECT().Wait(mock.Anything).Return().Once()
	ui.EXPECT().Close(mock.Anything).Return().Once()
}

func newWorkflow(t *testing.T) (domain.Workflow, *controllermocks.MockUI, *adaptermocks.MockReportStore) {
	t.Helper()

	ui := controllermocks.NewMockUI(t)
	store := adaptermocks.NewMockReportStore(t)

	return domain.NewWorkflow(adapter.OpenClassSource, store, ui, domain.DefaultPatchConfig()), ui, store
}

func loadEmitted(t *testing.T, source adapter.ClassLoader, name, method, desc string) []string {
	t.Helper()

	class, err := source.LoadClass(context.Background(), name)
	require.NoError(t, err)

	found := class.Method(method, desc)
	require.NotNil(t, found, "%s.%s%s", name, method, desc)

	return listing(found)
}

func TestWorkflow_PatchToDirectory(t *testing.T) {
	// Arrange
	game := gameJar(t)
	out := t.TempDir()
	reportPath := m.Path(filepath.Join(out, "report.yaml"))

	wf, ui, store := newWorkflow(t)

	var shown m.Report

	store.EXPECT().SaveReport(reportPath, mock.AnythingOfType("model.Report")).Return(nil).Once()
	expectShow(ui, controller.ModePatch)
	ui.EXPECT().DisplayReport(mock.Anything, mock.Anything).
		Run(func(_ context.Context, report m.Report) { shown = report }).
		Return(nil).Once()

	// Act
	err := wf.Patch(context.Background(), domain.PatchArgs{
		Game:   game,
		Output: m.Path(out),
		Report: reportPath,
		Mode:   m.ModeInteractive,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "starmade-0.202.108", shown.Game.ID)
	assert.Equal(t, []string{hooksites.Server, hooksites.Client}, shown.Sites)
	assert.Len(t, shown.Records, 2)

	patched, err := adapter.NewDirClassLoader(m.Path(out), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"aconst_null", "aload 0", serverHookCall, "nop", "return"},
		loadEmitted(t, patched, "obf/Server", "run", "()V"))
	assert.Equal(t, []string{"aconst_null", "aload 0", clientHookCall, "nop", "return"},
		loadEmitted(t, patched, "obf/Client", "run", "()V"))

	_, err = os.Stat(filepath.Join(out, "obf", "Menu.class"))
	assert.True(t, os.IsNotExist(err), "untouched classes are not written")
}

func TestWorkflow_PatchAlternateLaunch(t *testing.T) {
	game := gameJar(t)
	out := t.TempDir()

	wf, ui, _ := newWorkflow(t)

	expectShow(ui, controller.ModePatch)
	ui.EXPECT().DisplayReport(mock.Anything, mock.MatchedBy(func(report m.Report) bool {
		return len(report.Sites) == 2 && report.Sites[1] == hooksites.MainMenu
	})).Return(nil).Once()

	err := wf.Patch(context.Background(), domain.PatchArgs{
		Game:     game,
		Output:   m.Path(out),
		Mode:     m.ModeInteractive,
		GameArgs: []string{"-force"},
	})

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "obf", "Menu.class"))
	assert.NoFileExists(t, filepath.Join(out, "obf", "Client.class"))
}

func TestWorkflow_PatchToJar(t *testing.T) {
	game := gameJar(t)
	out := filepath.Join(t.TempDir(), "patched.jar")

	wf, ui, _ := newWorkflow(t)

	expectShow(ui, controller.ModePatch)
	ui.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil).Once()

	err := wf.Patch(context.Background(), domain.PatchArgs{
		Game:   game,
		Output: m.Path(out),
		Mode:   m.ModeInteractive,
	})
	require.NoError(t, err)

	patched, err := adapter.OpenJar(m.Path(out), 0)
	require.NoError(t, err)

	defer patched.Close()

	assert.Contains(t, loadEmitted(t, patched, "obf/Client", "run", "()V"), clientHookCall)
	assert.NotContains(t, loadEmitted(t, patched, "obf/Menu", "<init>", "()V"), clientHookCall)

	version, err := patched.ReadResource(context.Background(), m.VersionFile)
	require.NoError(t, err)
	assert.Equal(t, "0.202.108#20200220_100010", string(version))
}

func TestWorkflow_PatchDryRunWritesNothing(t *testing.T) {
	game := gameJar(t)

	wf, ui, _ := newWorkflow(t)

	expectShow(ui, controller.ModePatch)
	ui.EXPECT().DisplayReport(mock.Anything, mock.MatchedBy(func(report m.Report) bool {
		return len(report.Emitted) == 2
	})).Return(nil).Once()

	err := wf.Patch(context.Background(), domain.PatchArgs{
		Game:   game,
		Mode:   m.ModeInteractive,
		DryRun: true,
	})

	require.NoError(t, err)
}

func TestWorkflow_PatchLeavesGameJarAlone(t *testing.T) {
	game := gameJar(t)

	original, err := os.ReadFile(string(game))
	require.NoError(t, err)

	link := filepath.Join(t.TempDir(), "linked.jar")
	require.NoError(t, os.Symlink(string(game), link))

	wd, err := os.Getwd()
	require.NoError(t, err)

	relative, err := filepath.Rel(wd, string(game))
	require.NoError(t, err)

	outputs := map[string]m.Path{
		"dot segment": m.Path(filepath.Dir(string(game)) + "/./" + filepath.Base(string(game))),
		"parent hop":  m.Path(filepath.Dir(string(game)) + "/../" + filepath.Base(filepath.Dir(string(game))) + "/" + filepath.Base(string(game))),
		"relative":    m.Path(relative),
		"symlink":     m.Path(link),
	}

	for name, output := range outputs {
		t.Run(name, func(t *testing.T) {
			wf, _, _ := newWorkflow(t)

			err := wf.Patch(context.Background(), domain.PatchArgs{Game: game, Output: output, Mode: m.ModeInteractive})
			require.ErrorContains(t, err, "would overwrite the game jar")

			after, err := os.ReadFile(string(game))
			require.NoError(t, err)
			assert.Equal(t, original, after)
		})
	}
}

func TestWorkflow_PatchErrors(t *testing.T) {
	game := gameJar(t)

	tests := []struct {
		name    string
		args    domain.PatchArgs
		wantErr string
	}{
		{
			name:    "missing output",
			args:    domain.PatchArgs{Game: game, Mode: m.ModeInteractive},
			wantErr: "missing output path",
		},
		{
			name:    "output overwrites game",
			args:    domain.PatchArgs{Game: game, Output: game, Mode: m.ModeInteractive},
			wantErr: "would overwrite the game jar",
		},
		{
			name:    "headless session",
			args:    domain.PatchArgs{Game: game, Mode: m.ModeHeadless, DryRun: true},
			wantErr: "unsupported mode",
		},
		{
			name:    "missing game",
			args:    domain.PatchArgs{Game: "missing.jar", Mode: m.ModeInteractive, DryRun: true},
			wantErr: "open game",
		},
		{
			name: "missing class path entry",
			args: domain.PatchArgs{Game: game, Mode: m.ModeInteractive, DryRun: true,
				ClassPath: []m.Path{"missing-lib.jar"}},
			wantErr: "open class path entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf, _, _ := newWorkflow(t)

			err := wf.Patch(context.Background(), tt.args)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkflow_PatchWithClassPath(t *testing.T) {
	// the game jar only holds the launcher, the session classes live in a library
	starter := newStarter(t, launchers{server: "obf/Server", client: "obf/Client"})
	gamePath := filepath.Join(t.TempDir(), "StarMade.jar")
	writeJar(t, gamePath, nil, starter)

	server := bytecode.NewClassNode("obf/Server", objectName)
	runLoop(t, server)

	client := bytecode.NewClassNode("obf/Client", objectName)
	runLoop(t, client)

	libPath := filepath.Join(t.TempDir(), "lib.jar")
	writeJar(t, libPath, nil, server, client)

	wf, ui, _ := newWorkflow(t)

	expectShow(ui, controller.ModePatch)
	ui.EXPECT().DisplayReport(mock.Anything, mock.MatchedBy(func(report m.Report) bool {
		return len(report.Records) == 2
	})).Return(nil).Once()

	err := wf.Patch(context.Background(), domain.PatchArgs{
		Game:      m.Path(gamePath),
		ClassPath: []m.Path{m.Path(libPath)},
		Mode:      m.ModeInteractive,
		DryRun:    true,
	})

	require.NoError(t, err)
}

func TestWorkflow_Scan(t *testing.T) {
	game := gameJar(t)

	wf, ui, _ := newWorkflow(t)

	var matches []m.ScanMatch

	expectShow(ui, controller.ModeScan)
	ui.EXPECT().DisplayScan(mock.Anything, mock.Anything).
		Run(func(_ context.Context, found []m.ScanMatch) { matches = found }).
		Return(nil).Once()

	err := wf.Scan(context.Background(), domain.ScanArgs{Game: game, Prefix: "org/", Parallel: 2})
	require.NoError(t, err)

	sites := make([]string, len(matches))
	for i, match := range matches {
		sites[i] = match.Site
		assert.Equal(t, starterName, match.Class)
	}

	assert.Equal(t, []string{
		hooksites.Server,
		hooksites.Client, hooksites.Client,
		hooksites.MainMenu, hooksites.MainMenu,
	}, sites)
	assert.Equal(t, "invokespecial obf/Server.<init>(Z)V", matches[0].Insn)
	assert.Equal(t, 2, matches[0].Index)
}

func TestScanClasses_LimitsSitesAndPrefix(t *testing.T) {
	jar, _ := openJar(t, nil,
		newStarter(t, launchers{server: "obf/Server", client: "obf/Client"}),
		bytecode.NewClassNode("obf/Server", objectName))

	sites, err := hooksites.Resolve([]string{hooksites.Client})
	require.NoError(t, err)

	matches, err := domain.ScanClasses(context.Background(), jar, sites, "", 1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "invokespecial obf/LoginHelper.<init>"+clientCtorDesc, matches[0].Insn)
	assert.Equal(t, "invokespecial obf/Client.<init>"+clientCtorDesc, matches[1].Insn)

	matches, err = domain.ScanClasses(context.Background(), jar, sites, "obf/", 1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWorkflow_ScanUnknownSite(t *testing.T) {
	wf, _, _ := newWorkflow(t)

	err := wf.Scan(context.Background(), domain.ScanArgs{Game: gameJar(t), Sites: []string{"lobby"}})

	assert.ErrorContains(t, err, "lobby")
}

func TestWorkflow_Inspect(t *testing.T) {
	game := gameJar(t)

	wf, ui, _ := newWorkflow(t)

	var text string

	expectShow(ui, controller.ModeInspect)
	ui.EXPECT().DisplayListing(mock.Anything, starterName, mock.Anything).
		Run(func(_ context.Context, _ string, listing string) { text = listing }).
		Return(nil).Once()

	err := wf.Inspect(context.Background(), domain.InspectArgs{
		Source: game,
		Class:  starterClass,
		Method: "startClient",
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "class "+starterName))
	assert.Contains(t, text, "startClient"+startClientDesc)
	assert.Contains(t, text, "invokespecial obf/Client.<init>")
	assert.NotContains(t, text, "getServerRunnable")
}

func TestWorkflow_InspectMissingClass(t *testing.T) {
	wf, _, _ := newWorkflow(t)

	err := wf.Inspect(context.Background(), domain.InspectArgs{Source: gameJar(t), Class: "obf.Nowhere"})

	require.ErrorIs(t, err, adapter.ErrClassNotFound)
}

func TestWorkflow_Game(t *testing.T) {
	game := gameJar(t)

	wf, ui, _ := newWorkflow(t)

	expectShow(ui, controller.ModeGame)
	ui.EXPECT().DisplayGame(mock.Anything, mock.MatchedBy(func(info m.GameInfo) bool {
		return info.Name == "StarMade 0.202.108" && info.LaunchDir == "/opt/sm" && info.Jar == game
	})).Return(nil).Once()

	err := wf.Game(context.Background(), domain.GameArgs{Game: game, GameArgs: []string{"--gameDir", "/opt/sm"}})

	require.NoError(t, err)
}
