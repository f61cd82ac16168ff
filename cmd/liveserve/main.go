package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/liveserve-dev/liveserve/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬  ┬┬  ┬┌─┐┌─┐┌─┐┬─┐┬  ┬┌─┐
  │  │└┐┌┘├┤ └─┐├┤ ├┬┘└┐┌┘├┤
  ┴─┘┴ └┘ └─┘└─┘└─┘┴└─ └┘ └─┘
`

func main() {
	rootCmd := serveCmd()
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cliError(err).Format())
		os.Exit(1)
	}
}

// cliError normalizes a command failure for terminal display. Structured
// errors pass through; anything else (flag parsing, cobra usage errors)
// becomes a CLI-category error.
func cliError(err error) *errors.ServeError {
	var serr *errors.ServeError
	if stderrors.As(err, &serr) {
		return serr
	}
	return errors.Newf(errors.CategoryCLI, "%v", err)
}

// printBanner prints the liveserve ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
