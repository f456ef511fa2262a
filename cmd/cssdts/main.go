// Package main provides the cssdts CLI for typed stylesheet declarations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yacobolo/cssdts"
	"github.com/yacobolo/cssdts/internal/report"
)

// exitError ends the process with code without printing anything more.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}
	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	fmt.Fprintln(os.Stderr, report.RenderStyle(report.StyleRed, "Error: "+err.Error(), report.ShouldUseColors(false)))
	os.Exit(1)
}

// newSession builds a session from the loaded configuration.
func newSession() (*cssdts.Session, error) {
	return cssdts.NewSession(buildSessionConfig())
}
