package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yacobolo/cssdts"
	"github.com/yacobolo/cssdts/internal/report"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <script>",
	Short: "Show where each stylesheet import of a script resolves",
	Long: `Run the stylesheet imports of one script through the plugin's module
resolution and print the virtual declaration path each one maps to.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	resolutions, err := cssdts.ResolveImports(s, args[0])
	if err != nil {
		return err
	}
	if err := s.Wait(cmd.Context()); err != nil {
		return err
	}

	colors := report.ShouldUseColors(getBoolWithFallback("color", "color", false))
	out := cmd.OutOrStdout()
	if len(resolutions) == 0 {
		fmt.Fprintln(out, report.RenderStyle(report.StyleGray, "no stylesheet imports", colors))
		return nil
	}

	for _, res := range resolutions {
		loc := fmt.Sprintf("%d:%d", res.Import.Location.Line, res.Import.Location.Column)
		target := report.RenderStyle(report.StyleRed, "not found", colors)
		if res.VirtualPath != "" {
			target = report.RenderStyle(report.StyleGreen, cssdts.GetRelativePath(res.VirtualPath), colors)
		}
		fmt.Fprintf(out, "%s %s -> %s\n",
			report.RenderStyle(report.StyleGray, loc, colors),
			report.RenderStyle(report.StyleCyan, res.Import.Specifier, colors),
			target)
	}
	return nil
}
