// Command cc is the driver for the compiler: it reads a C source file
// (or stdin), runs it through the compiler package, and writes the
// resulting x86-64 assembly to a file (or stdout). Its flag layout
// follows the cobra root-command style used elsewhere in the examples
// pack, in place of math-compiler's flag.Bool/flag.String driver.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skx/cc/compiler"
	"github.com/skx/cc/internal/config"
)

// version is the driver's reported version string.
const version = "0.1.0"

var (
	outputPath string
	configPath string
	toStdout   bool
	debug      bool
	showVer    bool
)

var rootCmd = &cobra.Command{
	Use:   "cc [file.c]",
	Short: "cc compiles a subset of C to x86-64 GNU-assembler text",
	Args:  cobra.MaximumNArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "output file (default: input with its extension replaced)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (default: platform config dir)")
	rootCmd.PersistentFlags().BoolVarP(&toStdout, "S", "S", false, "write assembly to stdout instead of a file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "insert a debug marker comment in the generated output")
	rootCmd.PersistentFlags().BoolVar(&showVer, "version", false, "print the version and exit")
}

func run(cmd *cobra.Command, args []string) error {
	if showVer {
		fmt.Printf("cc %s\n", version)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	name := "<stdin>"
	var in io.Reader = os.Stdin
	if len(args) == 1 {
		name = args[0]
		f, err := os.Open(name) // #nosec G304 -- user-supplied source path
		if err != nil {
			return fmt.Errorf("opening %s: %w", name, err)
		}
		defer f.Close()
		in = f
	}

	comp, err := compiler.New(name, in)
	if err != nil {
		return err
	}
	comp.SetDebug(debug || cfg.Output.EmitDebug)

	out, err := comp.Compile()
	if err != nil {
		return fmt.Errorf("compiling: %w", err)
	}

	if toStdout || len(args) == 0 {
		fmt.Print(out)
		return nil
	}

	dest := outputPath
	if dest == "" {
		dest = replaceSuffix(name, cfg.Output.Suffix)
	}
	if err := os.WriteFile(dest, []byte(out), 0644); err != nil { // #nosec G306 -- generated assembly is not sensitive
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// replaceSuffix swaps name's extension for suffix, or appends suffix if
// name has none.
func replaceSuffix(name, suffix string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i] + suffix
	}
	return name + suffix
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
