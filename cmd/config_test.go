package cmd

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starhook.dev/pkg/starhook/internal/domain"
	m "starhook.dev/pkg/starhook/internal/model"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "starhook", configBaseName)
	assert.Equal(t, "starhook.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "output", outputFlagName)
	assert.Equal(t, "parallel", runParallelFlagName)
	assert.Equal(t, "run.parallel", runParallelConfigKey)
	assert.Equal(t, "starhook-out", defaultOutput)
	assert.Equal(t, 4, defaultRunParallel)
	assert.Equal(t, "org.schema.", defaultEntryPrefix)
	assert.Equal(t, "STARHOOK", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestRankKey(t *testing.T) {
	assert.Equal(t, "rank.headless.constructor", rankKey(m.ModeHeadless, m.ShapeConstructor))
}

// withConfig overrides viper keys for the duration of a test.
func withConfig(t *testing.T, values map[string]interface{}) {
	t.Helper()

	for key, value := range values {
		previous := viper.Get(key)
		viper.Set(key, value)

		t.Cleanup(func() { viper.Set(key, previous) })
	}
}

func TestPatchConfig_Defaults(t *testing.T) {
	cfg, err := patchConfig()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPatchConfig().Hooks, cfg.Hooks)
	assert.Equal(t, m.DefaultRanks(), cfg.Ranks)
	assert.Equal(t, domain.PolicyExclusive, cfg.Policy)
	assert.Equal(t, domain.DefaultEntryPrefix, cfg.EntryPrefix)
	assert.False(t, cfg.AllowHeadless)
	assert.Empty(t, cfg.Sites)
}

func TestPatchConfig_Overrides(t *testing.T) {
	withConfig(t, map[string]interface{}{
		patchPolicyKey:        "additive",
		patchAllowHeadlessKey: true,
		patchSitesKey:         []string{"server"},
		hooksOwnerClientKey:   "com.example.hooks.Client",
		hooksNameKey:          "begin",
		rankKey(m.ModeInteractive, m.ShapeConstructor): 5,
	})

	cfg, err := patchConfig()

	require.NoError(t, err)
	assert.Equal(t, domain.PolicyAdditive, cfg.Policy)
	assert.True(t, cfg.AllowHeadless)
	assert.Equal(t, []string{"server"}, cfg.Sites)
	assert.Equal(t, m.HookSymbol{Owner: "com/example/hooks/Client", Name: "begin", Desc: m.HookDescriptor},
		cfg.Hooks[m.HookClient])
	assert.Equal(t, "begin", cfg.Hooks[m.HookServer].Name)
	assert.Equal(t, m.Rank(5), cfg.Ranks[m.ModeInteractive][m.ShapeConstructor])
}

func TestPatchConfig_Rejects(t *testing.T) {
	t.Run("unknown policy", func(t *testing.T) {
		withConfig(t, map[string]interface{}{patchPolicyKey: "both"})

		_, err := patchConfig()
		assert.ErrorContains(t, err, "both")
	})

	t.Run("foreign hook descriptor", func(t *testing.T) {
		withConfig(t, map[string]interface{}{hooksDescriptorKey: "()V"})

		_, err := patchConfig()
		assert.ErrorContains(t, err, "not supported")
	})
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"chatty", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.in, slog.LevelWarn))
		})
	}
}
