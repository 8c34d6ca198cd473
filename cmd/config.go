package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"starhook.dev/pkg/starhook/internal/domain"
	m "starhook.dev/pkg/starhook/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "starhook"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName        = "output"
	reportFlagName        = "report"
	runParallelFlagName   = "parallel"
	modeFlagName          = "mode"
	policyFlagName        = "policy"
	siteFlagName          = "site"
	allowHeadlessFlagName = "allow-headless"
	verboseFlagName       = "verbose"
	logFileFlagName       = "log-file"

	runParallelConfigKey   = "run.parallel"
	patchModeKey           = "patch.mode"
	patchPolicyKey         = "patch.policy"
	patchSitesKey          = "patch.sites"
	patchEntryPrefixKey    = "patch.entry_prefix"
	patchAllowHeadlessKey  = "patch.allow_headless"
	hooksOwnerClientKey    = "hooks.owner_client"
	hooksOwnerServerKey    = "hooks.owner_server"
	hooksNameKey           = "hooks.name"
	hooksDescriptorKey     = "hooks.descriptor"
	rankConfigKeyPrefix    = "rank"
	defaultOutput          = "starhook-out"
	defaultReport          = ""
	defaultRunParallel     = 4
	defaultPatchMode       = string(m.ModeInteractive)
	defaultPatchPolicy     = string(domain.PolicyExclusive)
	defaultAllowHeadless   = false
	defaultEntryPrefix     = domain.DefaultEntryPrefix

	envPrefix = "STARHOOK"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".starhook.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultOutput)
	viper.SetDefault(reportFlagName, defaultReport)
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)

	viper.SetDefault(patchModeKey, defaultPatchMode)
	viper.SetDefault(patchPolicyKey, defaultPatchPolicy)
	viper.SetDefault(patchSitesKey, []string{})
	viper.SetDefault(patchEntryPrefixKey, defaultEntryPrefix)
	viper.SetDefault(patchAllowHeadlessKey, defaultAllowHeadless)

	viper.SetDefault(hooksOwnerClientKey, m.DefaultClientHook)
	viper.SetDefault(hooksOwnerServerKey, m.DefaultServerHook)
	viper.SetDefault(hooksNameKey, m.DefaultHookName)
	viper.SetDefault(hooksDescriptorKey, m.HookDescriptor)

	for mode, table := range m.DefaultRanks() {
		for shape, rank := range table {
			viper.SetDefault(rankKey(mode, shape), int(rank))
		}
	}

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

func rankKey(mode m.Mode, shape m.Shape) string {
	return rankConfigKeyPrefix + "." + string(mode) + "." + string(shape)
}

// patchConfig builds the engine settings from config file, env and flags.
// configuredHooks returns the hook symbols from the hooks.* keys.
func configuredHooks() m.Hooks {
	name := viper.GetString(hooksNameKey)
	desc := viper.GetString(hooksDescriptorKey)

	return m.Hooks{
		m.HookClient: {Owner: m.InternalName(viper.GetString(hooksOwnerClientKey)), Name: name, Desc: desc},
		m.HookServer: {Owner: m.InternalName(viper.GetString(hooksOwnerServerKey)), Name: name, Desc: desc},
	}
}

func patchConfig() (domain.PatchConfig, error) {
	policy, err := domain.ParsePolicy(viper.GetString(patchPolicyKey))
	if err != nil {
		return domain.PatchConfig{}, err
	}

	cfg := domain.DefaultPatchConfig()
	cfg.EntryPrefix = viper.GetString(patchEntryPrefixKey)
	cfg.AllowHeadless = viper.GetBool(patchAllowHeadlessKey)
	cfg.Policy = policy
	cfg.Sites = viper.GetStringSlice(patchSitesKey)

	cfg.Hooks = configuredHooks()

	cfg.Ranks = m.Ranks{}
	for _, mode := range []m.Mode{m.ModeInteractive, m.ModeHeadless} {
		table := m.RankTable{}
		for _, shape := range []m.Shape{m.ShapeRunLoop, m.ShapeConstructor} {
			table[shape] = m.Rank(viper.GetInt(rankKey(mode, shape)))
		}

		cfg.Ranks[mode] = table
	}

	if desc := viper.GetString(hooksDescriptorKey); desc != m.HookDescriptor {
		return cfg, fmt.Errorf("hook descriptor %q is not supported (want %s)", desc, m.HookDescriptor)
	}

	return cfg, nil
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
