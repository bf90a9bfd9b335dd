package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ratecalc",
	Short: "Insurance rating formula engine",
	Long: `ratecalc runs the lazy, memoized rating DSL engine: given a JSON
request describing input values, named formulas, and a list of outputs to
compute, it evaluates each output in sort order and prints the resulting
values as JSON.

This is the reference host for the formula language: per-output values
(if (...) then return ... end), per-instance fan-out, and user-defined
functions with recursion all behave exactly as the engine's library API.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
