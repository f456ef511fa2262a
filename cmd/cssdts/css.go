package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/yacobolo/cssdts/internal/compiler"
	"github.com/yacobolo/cssdts/internal/dialect"
	"go.trai.ch/zerr"
)

var cssCmd = &cobra.Command{
	Use:   "css <stylesheet>",
	Short: "Print the CSS a stylesheet compiles to",
	Long: `Render a LESS, SCSS or Sass stylesheet with the same engines and include
paths the declarations are built from. Plain CSS is printed as is.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runCSS,
}

func init() {
	cssCmd.Flags().Bool("minify", false, "Minify the rendered CSS")
}

func runCSS(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	abs, err := filepath.Abs(args[0])
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", args[0])
	}
	abs = filepath.ToSlash(abs)

	d := dialect.Detect(abs, s.Config().Extensions)
	if d == dialect.Unknown {
		return zerr.With(zerr.New("not a stylesheet"), "path", args[0])
	}

	src, err := s.Files().ReadFile(abs)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read stylesheet"), "path", args[0])
	}

	out, err := s.Compiler().Render(cmd.Context(), compiler.Request{
		Source:       string(src),
		Dialect:      d,
		Path:         abs,
		IncludePaths: s.Config().IncludePaths,
	})
	if err != nil {
		return err
	}

	if getBoolWithFallback("minify", "css.minify", false) {
		if out, err = minifyCSS(out); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func minifyCSS(src string) (string, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	out, err := m.String("text/css", src)
	if err != nil {
		return "", zerr.Wrap(err, "failed to minify css")
	}
	return out, nil
}
