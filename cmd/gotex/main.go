// Command gotex is the typesetting engine's command-line front end
// (spec.md §6.1): it resolves the input/format file names, builds an
// Engine, and runs the job to completion.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/gotex/engine"
)

var (
	flagIni    bool
	flagFormat string
)

func main() {
	cmd := newRootCmd()
	args := append([]string(nil), os.Args[1:]...)
	for i, a := range args {
		// pflag only accepts long flags with two dashes; map TeX's
		// single-dash -ini, -fmt NAME and -fmt=NAME onto them.
		if a == "-ini" || a == "-fmt" || strings.HasPrefix(a, "-fmt=") {
			args[i] = "-" + a
		}
	}
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gotex [flags] input",
		Short:        "gotex typesets a document, writing a .dvi file",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE:         runGotex,
	}
	cmd.Flags().BoolVar(&flagIni, "ini", false, "enable initex mode (permits \\dump and pattern loading)")
	cmd.Flags().StringVar(&flagFormat, "fmt", "plain.fmt", "format file to preload")
	return cmd
}

func runGotex(cmd *cobra.Command, args []string) error {
	inputPath := withExtension(args[0], ".tex")

	cfg, err := engine.LoadConfig("gotex.toml")
	if err != nil {
		return fmt.Errorf("loading gotex.toml: %w", err)
	}

	e := engine.New(cfg, engine.ErrorStopMode, flagIni)

	if !flagIni {
		formatPath := withExtension(flagFormat, ".fmt")
		if err := e.LoadFormat(formatPath); err != nil {
			return fmt.Errorf("preloading format %q: %w", formatPath, err)
		}
	}

	if err := e.Run(inputPath); err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}
	return nil
}

// withExtension appends ext to path if path doesn't already carry a
// dot-extension, per spec.md §6.1's "extension appended if absent"
// rule for both the input file and -fmt's format file.
func withExtension(path, ext string) string {
	base := path
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		base = path[i+1:]
	}
	if strings.Contains(base, ".") {
		return path
	}
	return path + ext
}
