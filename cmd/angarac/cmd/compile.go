package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/angara-lang/angarac/internal/config"
	"github.com/angara-lang/angarac/internal/driver"
)

var (
	outputPath   string
	ccOverride   string
	nativeDir    string
	modulePaths  []string
	compileQuiet bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <root-source>",
	Short: "Compile an Angara program to a native executable",
	Long: `Compile resolves the root module and every module it attaches,
type-checks each one, emits C for it, and finally invokes the system C
compiler to link the generated sources with the runtime into an
executable.

Examples:
  # Compile a program (produces ./app from app.an)
  angarac compile app.an

  # Compile with a specific C compiler
  angarac compile app.an --cc clang

  # Add module search paths
  angarac compile app.an --module-path ./vendor --module-path ./lib`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output executable (default: source path without extension)")
	compileCmd.Flags().StringVar(&ccOverride, "cc", "", "C compiler to invoke (default from config, then gcc)")
	compileCmd.Flags().StringVar(&nativeDir, "native-dir", "", "native-module install directory")
	compileCmd.Flags().StringArrayVar(&modulePaths, "module-path", nil, "additional module search path (repeatable)")
	compileCmd.Flags().BoolVarP(&compileQuiet, "quiet", "q", false, "suppress progress output")
}

func runCompile(_ *cobra.Command, args []string) error {
	rootPath := args[0]

	cfg, err := config.Load(config.ResolveConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if ccOverride != "" {
		cfg.CC = ccOverride
	}
	if nativeDir != "" {
		cfg.NativeModuleDir = nativeDir
	}
	cfg.ModuleSearchPaths = append(cfg.ModuleSearchPaths, modulePaths...)

	colorize := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	progress := color.New(color.FgCyan)
	errHeading := color.New(color.FgRed, color.Bold)
	success := color.New(color.FgGreen)
	if !colorize {
		color.NoColor = true
	}

	d := driver.New(cfg)
	if !compileQuiet {
		d.Progress = func(canonical string, total int) {
			progress.Fprintf(os.Stderr, "[%d] compiling %s\n", total, filepath.Base(canonical))
		}
	}

	exe, ok := d.CompileRoot(rootPath)
	if !ok {
		for _, item := range d.Bag.Items() {
			source := ""
			if data, rerr := os.ReadFile(item.File); rerr == nil {
				source = string(data)
			}
			fmt.Fprintln(os.Stderr, item.Format(colorize, source))
		}
		errHeading.Fprintf(os.Stderr, "compilation failed with %d error(s)\n", len(d.Bag.Items()))
		return fmt.Errorf("compilation failed")
	}

	if outputPath != "" && outputPath != exe {
		if err := os.Rename(exe, outputPath); err != nil {
			return fmt.Errorf("moving executable to %s: %w", outputPath, err)
		}
		exe = outputPath
	}
	if !compileQuiet {
		success.Fprintf(os.Stderr, "built %s\n", exe)
	}
	return nil
}
