package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cssdts",
	Short: "Typed declarations for stylesheet imports",
	Long: `Compile CSS, LESS, SCSS and Sass modules into declaration files.
Each class name becomes a string field of the imported module:
import styles from "./button.module.css" -> styles.primary`,
	// Default behavior: run dts when no subcommand is given.
	// loadConfig is called here because PreRunE of dtsCmd does not run
	// when delegating via rootCmd.RunE.
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return runDts(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global persistent flags (inherited by all subcommands)
	f := rootCmd.PersistentFlags()
	f.BoolP("verbose", "v", false, "Enable debug logging")
	f.Bool("quiet", false, "Suppress all output (exit code only)")
	f.Bool("color", false, "Force color output")
	f.String("config", defaultConfigPath, "Config file path")
	f.StringSlice("extension", nil, "Stylesheet extensions to recognise (default .css,.less,.scss,.sass)")
	f.String("suffix", ".d.ts", "Suffix appended to stylesheet paths for declarations")
	f.String("sass-binary", "", "Dart Sass executable (default: sass on PATH)")
	f.Bool("scoped-names", true, "Export scoped class names as token values")
	f.StringSlice("include-path", nil, "Extra search paths for preprocessor imports")
	f.String("log-level", "warn", "Log level: debug|info|warn|error")
	f.String("log-file", "", "Append JSON logs to this file")

	rootCmd.Flags().Bool("write", false, "Write <stylesheet>.d.ts files instead of printing")
	rootCmd.Flags().Int("concurrency", 0, "Parallel compilations (0 = one per CPU)")

	rootCmd.AddCommand(dtsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cssCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
