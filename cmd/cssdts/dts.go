package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yacobolo/cssdts"
	"github.com/yacobolo/cssdts/internal/report"
	"go.trai.ch/zerr"
)

var dtsCmd = &cobra.Command{
	Use:     "dts [patterns...]",
	Aliases: []string{"gen"},
	Short:   "Generate declarations for stylesheet modules",
	Long: `Compile each matched stylesheet and print its declaration.
With --write the declaration is written next to the stylesheet as
<stylesheet>.d.ts, which is what editors without the plugin read.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runDts,
}

func init() {
	f := dtsCmd.Flags()
	f.Bool("write", false, "Write <stylesheet>.d.ts files instead of printing")
	f.Int("concurrency", 0, "Parallel compilations (0 = one per CPU)")
}

func runDts(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	cfg := buildGenerateConfig(args)
	result, err := cssdts.Generate(cmd.Context(), s, cfg)
	if err != nil {
		return zerr.Wrap(err, "generation failed")
	}

	quiet := getBoolWithFallback("quiet", "quiet", false)
	colors := report.ShouldUseColors(getBoolWithFallback("color", "color", false))
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	for _, decl := range result.Declarations {
		if decl.Err != nil {
			fmt.Fprintf(errOut, "%s %s: %v\n",
				report.RenderStyle(report.StyleRed, "✗", colors), cssdts.GetRelativePath(decl.Path), decl.Err)
			continue
		}
		if !cfg.Write {
			fmt.Fprintf(out, "// %s\n%s\n", cssdts.GetRelativePath(decl.DeclarationPath), decl.Content)
		}
	}

	if cfg.Write && !quiet {
		fmt.Fprintf(out, "Wrote %s\n", pluralize(result.Written, "declaration"))
		fmt.Fprintf(out, "  Stylesheets scanned: %d\n", result.FilesScanned)
		if result.Failed > 0 {
			fmt.Fprintf(out, "  %s\n", report.RenderStyle(report.StyleYellow,
				fmt.Sprintf("Failed: %d", result.Failed), colors))
		}
	}

	if result.Failed > 0 {
		return zerr.With(zerr.New("some stylesheets failed to compile"), "failed", result.Failed)
	}
	return nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
