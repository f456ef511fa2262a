package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/cssdts
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of cssdts and its style engines",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cssdts %s (%s)\n", buildVersion(), runtime.Version())
		for _, dep := range engineModules() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", dep.Path, dep.Version)
		}
	},
}

// buildVersion prefers the ldflags version, then the module version.
func buildVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

// engineModules lists the modules that render and parse stylesheets.
func engineModules() []*debug.Module {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	wanted := map[string]bool{
		"github.com/bep/godartsass/v2": true,
		"github.com/tdewolff/parse/v2": true,
	}
	var out []*debug.Module
	for _, dep := range info.Deps {
		if wanted[dep.Path] {
			out = append(out, dep)
		}
	}
	return out
}
