package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦═╗╦╦  ╦╔═╗╔╦╗
  ╠╦╝║╚╗╔╝║╣  ║
  ╩╚═╩ ╚╝ ╚═╝ ╩
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "rivet",
		Short: "File-system route bundler for component-based web UIs",
		Long: `Rivet discovers routes from your app directory, compiles each
route into server and client bundles through a content-addressed
cache, and serves live updates during development.

Routing conventions:
  • app/blog/page.tsx        → /blog
  • app/blog/[slug]/page.tsx → /blog/{slug}
  • app/docs/[...rest]/      → catch-all
  • app/(group)/, app/@slot/ → no URL segment`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		createCmd(),
		devCmd(),
		buildCmd(),
		cleanCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the ASCII art banner.
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
