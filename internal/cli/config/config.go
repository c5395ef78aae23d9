// Package config merges configuration from defaults, config file, profile,
// environment, and flags into analyzer.Options and validates the result.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/FJ-cyberzilla/codex/internal/cli/git"
	"github.com/FJ-cyberzilla/codex/pkg/analyzer"
	"github.com/FJ-cyberzilla/codex/pkg/analyzer/toolset"
)

const (
	EnvPrefix         = "CODEX"
	DefaultConfigName = "codex"
	// ToolMapFileName is the repo-local tool map override searched next to
	// the target path.
	ToolMapFileName = ".codextools.yaml"
)

// Settings carries the CLI-layer values that live outside analyzer.Options.
type Settings struct {
	TuiEnabled   bool
	OutputFormat analyzer.OutputFormat
	OutputDir    string
	HistoryFile  string
	ChangedOnly  bool
	ConfigFile   string
	ProfileName  string
}

// LoadAndValidate loads configuration from all sources (defaults, file,
// profile, env, flags), validates the merged result, resolves the tool map,
// and sets up the logger. targetPath comes from the positional argument;
// flags take the highest priority for everything else.
func LoadAndValidate(cfgFile, profileName, targetPath string, flags *pflag.FlagSet) (analyzer.Options, Settings, *slog.Logger, error) {
	var opts analyzer.Options
	var settings Settings
	v := viper.New()

	// Temporary logger for errors before the verbosity level is known.
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return opts, settings, tempLogger, fmt.Errorf("resolve user home directory: %w", err)
		}
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			tempLogger.Debug("no configuration file found, using defaults/env/flags")
		} else {
			used := cfgFile
			if used == "" {
				used = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			return opts, settings, tempLogger, fmt.Errorf("read config file '%s': %w", used, err)
		}
	} else {
		settings.ConfigFile = v.ConfigFileUsed()
		tempLogger.Debug("using configuration file", slog.String("path", settings.ConfigFile))
	}

	settings.ProfileName = profileName
	if profileName != "" {
		profileKey := "profiles." + profileName
		if !v.IsSet(profileKey) {
			configPath := v.ConfigFileUsed()
			if configPath == "" {
				configPath = "(no config file found)"
			}
			return opts, settings, tempLogger, fmt.Errorf("%w: profile '%s' not found in config file '%s'", analyzer.ErrConfigValidation, profileName, configPath)
		}
		profile := v.Sub(profileKey)
		if profile == nil {
			return opts, settings, tempLogger, fmt.Errorf("%w: could not load profile '%s'", analyzer.ErrConfigValidation, profileName)
		}
		if err := v.MergeConfigMap(profile.AllSettings()); err != nil {
			return opts, settings, tempLogger, fmt.Errorf("merge profile '%s': %w", profileName, err)
		}
		tempLogger.Debug("applied configuration profile", slog.String("profile", profileName))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	flagKeys := []string{
		"fix", "verbose", "no-tui", "concurrency", "exclude",
		"changed-only", "output-format", "output-dir", "tool-timeout",
		"history-file",
	}
	for _, key := range flagKeys {
		if flag := flags.Lookup(key); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return opts, settings, tempLogger, fmt.Errorf("bind flag '--%s': %w", key, err)
			}
		}
	}
	v.RegisterAlias("fixMode", "fix")
	v.RegisterAlias("excludePatterns", "exclude")
	v.RegisterAlias("changedOnly", "changed-only")
	v.RegisterAlias("outputFormat", "output-format")
	v.RegisterAlias("outputDir", "output-dir")
	v.RegisterAlias("toolTimeoutSeconds", "tool-timeout")
	v.RegisterAlias("historyFile", "history-file")

	if err := v.Unmarshal(&opts); err != nil {
		return opts, settings, tempLogger, fmt.Errorf("unmarshal configuration: %w", err)
	}
	opts.TargetPath = targetPath

	// Boolean flags must win over file/env values when set explicitly.
	if flags.Changed("fix") {
		opts.FixMode, _ = flags.GetBool("fix")
	}
	if flags.Changed("verbose") {
		opts.Verbose, _ = flags.GetBool("verbose")
	}
	opts.ToolTimeout = time.Duration(v.GetInt("tool-timeout")) * time.Second

	settings.TuiEnabled = v.GetBool("tui")
	if flags.Changed("no-tui") {
		if noTui, _ := flags.GetBool("no-tui"); noTui {
			settings.TuiEnabled = false
		}
	}
	settings.OutputFormat = analyzer.OutputFormat(v.GetString("output-format"))
	settings.OutputDir = v.GetString("output-dir")
	settings.HistoryFile = v.GetString("history-file")
	settings.ChangedOnly = v.GetBool("changed-only")

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logHandler)
	opts.Logger = logHandler

	if err := validateAndDeriveOptions(&opts, &settings, v, logger); err != nil {
		return opts, settings, logger, err
	}

	logger.Debug("configuration loading complete",
		slog.String("configFile", settings.ConfigFile),
		slog.String("profile", settings.ProfileName),
		slog.Bool("verbose", opts.Verbose),
		slog.String("logLevel", logLevel.String()),
	)
	return opts, settings, logger, nil
}

// setDefaults establishes every configuration key's default in viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("fix", analyzer.DefaultFixMode)
	v.SetDefault("verbose", analyzer.DefaultVerbose)
	v.SetDefault("tui", analyzer.DefaultTuiEnabled)
	v.SetDefault("concurrency", analyzer.DefaultMaxWorkers)
	v.SetDefault("tool-timeout", int(analyzer.DefaultToolTimeout/time.Second))
	v.SetDefault("exclude", []string{})
	v.SetDefault("skipDirs", analyzer.DefaultSkipDirs)
	v.SetDefault("changed-only", false)
	v.SetDefault("output-format", string(analyzer.DefaultOutputFormat))
	v.SetDefault("output-dir", analyzer.DefaultOutputDir)
	v.SetDefault("history-file", analyzer.DefaultHistoryFile)
	v.SetDefault("tools", map[string]interface{}{})
}

// validateAndDeriveOptions performs semantic validation on the merged
// configuration and resolves the tool map, exclude patterns, and changed-file
// set. Errors wrap analyzer.ErrConfigValidation.
func validateAndDeriveOptions(opts *analyzer.Options, settings *Settings, v *viper.Viper, logger *slog.Logger) error {
	if opts.TargetPath == "" {
		return fmt.Errorf("%w: target path is required", analyzer.ErrConfigValidation)
	}
	absTarget, err := filepath.Abs(opts.TargetPath)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve target path '%s': %w", analyzer.ErrConfigValidation, opts.TargetPath, err)
	}
	opts.TargetPath = absTarget
	if _, err := os.Stat(opts.TargetPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: target path '%s' does not exist", analyzer.ErrConfigValidation, opts.TargetPath)
		}
		return fmt.Errorf("%w: cannot access target path '%s': %w", analyzer.ErrConfigValidation, opts.TargetPath, err)
	}

	if opts.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must be >= 0, got %d", analyzer.ErrConfigValidation, opts.Concurrency)
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = runtime.NumCPU()
		logger.Debug("concurrency not set, using CPU count", slog.Int("concurrency", opts.Concurrency))
	}

	if settings.OutputFormat != analyzer.OutputFormatText && settings.OutputFormat != analyzer.OutputFormatJSON {
		return fmt.Errorf("%w: invalid output format '%s' (allowed: text, json)", analyzer.ErrConfigValidation, settings.OutputFormat)
	}

	for _, pat := range opts.ExcludePatterns {
		if !doublestarValid(pat) {
			return fmt.Errorf("%w: invalid exclude pattern '%s'", analyzer.ErrConfigValidation, pat)
		}
	}

	toolMap, err := resolveToolMap(opts.TargetPath, v, logger)
	if err != nil {
		return err
	}
	opts.Tools = toolset.New(toolMap)

	if settings.ChangedOnly {
		changed, err := gitChangedFiles(opts.TargetPath, opts.Logger)
		if err != nil {
			return fmt.Errorf("%w: --changed-only requires a git repository: %w", analyzer.ErrConfigValidation, err)
		}
		opts.ChangedFiles = changed
		logger.Debug("restricting run to changed files", slog.Int("count", len(changed)))
	}

	if opts.Verbose && settings.TuiEnabled {
		logger.Debug("verbose mode enabled, disabling TUI")
		settings.TuiEnabled = false
	}
	return nil
}

// resolveToolMap picks the tool chain table: a .codextools.yaml next to the
// target wins, then the config file's tools section, then built-in defaults.
func resolveToolMap(targetPath string, v *viper.Viper, logger *slog.Logger) (map[string][]toolset.ToolSpec, error) {
	dir := targetPath
	if info, err := os.Stat(targetPath); err == nil && !info.IsDir() {
		dir = filepath.Dir(targetPath)
	}
	override := filepath.Join(dir, ToolMapFileName)
	if _, err := os.Stat(override); err == nil {
		m, err := toolset.LoadFile(override)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", analyzer.ErrConfigValidation, err)
		}
		logger.Debug("using repo-local tool map", slog.String("path", override))
		return m, nil
	}

	if tools := v.GetStringMap("tools"); len(tools) > 0 {
		raw := make(map[string]interface{}, len(tools))
		for k, val := range tools {
			raw[k] = val
		}
		if err := toolset.Validate(raw); err != nil {
			return nil, fmt.Errorf("%w: %w", analyzer.ErrConfigValidation, err)
		}
		var typed map[string][]toolset.ToolSpec
		if err := v.UnmarshalKey("tools", &typed); err != nil {
			return nil, fmt.Errorf("%w: decode tools section: %w", analyzer.ErrConfigValidation, err)
		}
		logger.Debug("using tool map from configuration", slog.Int("languages", len(typed)))
		return typed, nil
	}

	logger.Debug("using built-in tool map")
	return toolset.Defaults(), nil
}

func doublestarValid(pattern string) bool {
	return doublestar.ValidatePattern(pattern)
}

// gitChangedFiles collects the working-tree changes as slash-relative paths.
func gitChangedFiles(targetPath string, handler slog.Handler) (map[string]struct{}, error) {
	client := git.NewClient(handler)
	files, err := client.ChangedFiles(targetPath)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(files))
	for _, f := range files {
		set[filepath.ToSlash(filepath.Clean(f))] = struct{}{}
	}
	return set, nil
}
