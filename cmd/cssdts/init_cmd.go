package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default " + defaultConfigPath + " config file",
	Long:  `Create a ` + defaultConfigPath + ` configuration file in the current directory with the default settings.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(defaultConfigPath); err == nil && !force {
			return zerr.With(zerr.New("config file already exists (use --force to overwrite)"), "path", defaultConfigPath)
		}

		// #nosec G306 - config is meant to be shared
		if err := os.WriteFile(defaultConfigPath, []byte(defaultConfig), 0o644); err != nil {
			return zerr.Wrap(err, "writing config file")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Created "+defaultConfigPath)
		return nil
	},
}

const defaultConfig = `# cssdts configuration
# Docs: https://github.com/yacobolo/cssdts

# Shared settings
extensions: [".css", ".less", ".scss", ".sass"]
suffix: .d.ts
sass-binary: ""           # default: sass on PATH
scoped-names: true
include-paths: []

log:
  level: warn             # debug | info | warn | error
  file: ""                # JSON log file, empty = console only

# Declaration generation
dts:
  patterns:
    - "**/*.module.{css,less,scss,sass}"
  write: false
  concurrency: 0          # 0 = one per CPU

# Import checking
check:
  paths:
    - "src/**/*.{ts,tsx,js,jsx}"
  stale: false
  strict: false
  output-format: issues   # issues | json
  max-issues-per-linter: 0 # 0 = unlimited
  max-same-issues: 0       # 0 = unlimited
  print-lines: true
  print-linter-name: true

css:
  minify: false
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
