package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ardanlabs/gloo/config"
	"github.com/ardanlabs/gloo/internal/logger"
)

// version of the gloo tool itself, not of the generated bindings.
const version = "0.1.0"

// errOutOfDate is returned by check when the output differs from a fresh run.
var errOutOfDate = errors.New("generated bindings are out of date")

var (
	configFile string
	jsonLogs   bool
	verbosity  int
)

var rootCmd = &cobra.Command{
	Use:   "gloo",
	Short: "Generate runtime GL bindings from the Khronos XML registry",
	Long: `Generate a Go source file that binds every command in a GL registry
(gl.xml) as a runtime-resolved function pointer, plus one constant per enum.

Settings come from flags, GLOO_* environment variables and an optional
gloo.toml in the working directory.

Examples:
  gloo                                     # ./api/gl.xml -> ./gloo/gloo.go
  gloo -i registry/gl.xml -o gl/gl.go -p gl
  gloo --api gl -v                         # desktop GL only, log fallbacks
  gloo check                               # fail if the output is stale`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE:              runGenerate,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the generated bindings are up to date",
	Long: `Regenerate in memory and compare with the existing output file.

Exit codes:
  0 - output is up to date
  1 - output is missing, stale, or generation failed`,
	RunE: runCheck,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gloo version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gloo %s\n", version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("input", "i", "", "Path to the GL registry XML (default ./api/gl.xml)")
	pf.StringP("output", "o", "", "Path of the generated Go file (default ./gloo/gloo.go)")
	pf.StringP("package", "p", "", "Go package name of the generated file (default gloo)")
	pf.String("api", "", "Keep only enums and commands for this API (gl, gles2, ...)")
	pf.StringVar(&configFile, "config", "", "Config file (default ./gloo.toml if present)")
	pf.BoolVar(&jsonLogs, "json-logs", false, "Log as JSON")
	pf.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v, -vv)")

	rootCmd.AddCommand(checkCmd, versionCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	return logger.Initialize(jsonLogs, verbosity)
}

// loadConfig merges defaults, config file, environment and any flags the
// user actually set, in increasing precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v, err := config.New(configFile)
	if err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}
	return config.Load(v)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for _, name := range []string{"input", "output", "package", "api"} {
		f := cmd.Flag(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(name, f); err != nil {
			return errors.Wrapf(err, "binding --%s", name)
		}
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := generate(cfg)
	if err != nil {
		return err
	}
	if err := writeOutput(cfg.Output, res.Source); err != nil {
		return err
	}

	pterm.Success.Printfln("Generated %s (%d constants, %d commands)", cfg.Output, res.Constants, res.Commands)
	if n := len(res.Fallbacks); n > 0 {
		pterm.Info.Printfln("%d struct types emitted as GLvoid (-v lists them)", n)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := generate(cfg)
	if err != nil {
		return err
	}

	existing, err := os.ReadFile(cfg.Output)
	if err != nil {
		return errors.WithHint(errors.Wrapf(err, "reading %s", cfg.Output), "run gloo to generate it")
	}

	if !bytes.Equal(existing, res.Source) {
		return errors.WithHint(errors.Wrapf(errOutOfDate, "%s", cfg.Output), "run gloo to regenerate it")
	}

	pterm.Success.Printfln("%s is up to date", cfg.Output)
	return nil
}
