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

var configPath string

var rootCmd = &cobra.Command{
	Use:   "angarac",
	Short: "Angara whole-program compiler",
	Long: `angarac compiles Angara programs to portable C and links them with the
runtime library into a native executable.

Angara is a statically-typed, imperative, object-oriented language with
classes, contracts, traits, enums (tagged unions), data records, optional
types, and native-module interop.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. When invoked with a bare source path,
// compilation is the default action.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to angarac.yaml (default: $ANGARAC_CONFIG, then ./angarac.yaml)")

	// `angarac prog.an` without a subcommand compiles.
	rootCmd.RunE = func(c *cobra.Command, args []string) error {
		if len(args) == 0 {
			return c.Help()
		}
		return runCompile(c, args)
	}
	rootCmd.Args = cobra.ArbitraryArgs
}
