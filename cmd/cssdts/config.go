package main

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/yacobolo/cssdts"
	"go.trai.ch/zerr"
)

const defaultConfigPath = ".cssdts.yaml"

var k = koanf.New(".")

// envSections are the config sections whose keys nest under them in
// environment variable names.
var envSections = []string{"log", "dts", "check", "css"}

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if err := loadConfigFromPath(configPath); err != nil {
		return err
	}

	// Only flags that were explicitly set are loaded; unset flags fall back
	// through the get*WithFallback defaults.
	flags := cmd.Flags()
	provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed {
			return "", nil
		}
		return f.Name, posflag.FlagVal(flags, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return zerr.Wrap(err, "loading command flags")
	}
	return nil
}

// loadConfigFromPath loads the config file, then environment variables.
// It is separate from loadConfig so it can be tested without a command.
func loadConfigFromPath(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return zerr.With(zerr.Wrap(err, "loading config file"), "path", configPath)
		}
	}

	if err := k.Load(env.Provider("CSSDTS_", ".", envKey), nil); err != nil {
		return zerr.Wrap(err, "loading environment variables")
	}
	return nil
}

// envKey maps CSSDTS_ variables to config keys:
//
//	CSSDTS_LOG_LEVEL            -> log.level
//	CSSDTS_CHECK_MAX_SAME_ISSUES -> check.max-same-issues
//	CSSDTS_SASS_BINARY          -> sass-binary
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "CSSDTS_"))
	for _, section := range envSections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + strings.ReplaceAll(rest, "_", "-")
		}
	}
	return strings.ReplaceAll(key, "_", "-")
}

// buildSessionConfig constructs the library's Config from koanf state.
func buildSessionConfig() cssdts.Config {
	def := cssdts.DefaultConfig()
	cfg := cssdts.Config{
		Extensions:        getStringsWithFallback("extension", "extensions", def.Extensions),
		DeclarationSuffix: getStringWithFallback("suffix", "suffix", def.DeclarationSuffix),
		SassBinary:        getStringWithFallback("sass-binary", "sass-binary", ""),
		ScopedNames:       getBoolWithFallback("scoped-names", "scoped-names", def.ScopedNames),
		IncludePaths:      getStringsWithFallback("include-path", "include-paths", nil),
	}

	cfg.Log.Level = getStringWithFallback("log-level", "log.level", "warn")
	cfg.Log.File = getStringWithFallback("log-file", "log.file", "")
	cfg.Log.Console = true
	switch {
	case getBoolWithFallback("verbose", "verbose", false):
		cfg.Log.Level = "debug"
	case getBoolWithFallback("quiet", "quiet", false):
		cfg.Log.Level = "error"
	}
	return cfg
}

// buildGenerateConfig constructs the library's GenerateConfig from koanf
// state. Positional patterns win over configured ones.
func buildGenerateConfig(args []string) cssdts.GenerateConfig {
	patterns := args
	if len(patterns) == 0 {
		patterns = getStringsWithFallback("patterns", "dts.patterns", []string{"**/*.module.{css,less,scss,sass}"})
	}
	return cssdts.GenerateConfig{
		Patterns:    patterns,
		Write:       getBoolWithFallback("write", "dts.write", false),
		Concurrency: getIntWithFallback("concurrency", "dts.concurrency", 0),
	}
}

// buildCheckConfig constructs the library's CheckConfig from koanf state.
func buildCheckConfig() cssdts.CheckConfig {
	return cssdts.CheckConfig{
		ScanPaths:          getStringsWithFallback("paths", "check.paths", []string{"src/**/*.{ts,tsx,js,jsx}"}),
		Stale:              getBoolWithFallback("stale", "check.stale", false),
		MaxIssuesPerLinter: getIntWithFallback("max-issues-per-linter", "check.max-issues-per-linter", 0),
		MaxSameIssues:      getIntWithFallback("max-same-issues", "check.max-same-issues", 0),
	}
}

// buildOutputConfig constructs the library's OutputConfig from koanf state.
func buildOutputConfig() cssdts.OutputConfig {
	return cssdts.OutputConfig{
		PrintIssuedLines: getBoolWithFallback("print-lines", "check.print-lines", true),
		PrintLinterName:  getBoolWithFallback("print-linter-name", "check.print-linter-name", true),
		UseColors:        getBoolWithFallback("color", "color", false),
	}
}

// getStringWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringWithFallback(flagKey, configKey, defaultVal string) string {
	if v := k.String(flagKey); v != "" {
		return v
	}
	if v := k.String(configKey); v != "" {
		return v
	}
	return defaultVal
}

// getStringsWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringsWithFallback(flagKey, configKey string, defaultVal []string) []string {
	if v := k.Strings(flagKey); len(v) > 0 {
		return v
	}
	if v := k.Strings(configKey); len(v) > 0 {
		return v
	}
	return defaultVal
}

// getBoolWithFallback checks the flag key first, then the config file key, then returns the default.
func getBoolWithFallback(flagKey, configKey string, defaultVal bool) bool {
	if k.Exists(flagKey) {
		return k.Bool(flagKey)
	}
	if k.Exists(configKey) {
		return k.Bool(configKey)
	}
	return defaultVal
}

// getIntWithFallback checks the flag key first, then the config file key, then returns the default.
func getIntWithFallback(flagKey, configKey string, defaultVal int) int {
	if k.Exists(flagKey) {
		return k.Int(flagKey)
	}
	if k.Exists(configKey) {
		return k.Int(configKey)
	}
	return defaultVal
}
