package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	http "github.com/wesleyorama2/curlkit/http"
	"github.com/wesleyorama2/curlkit/internal/config"
	"github.com/wesleyorama2/curlkit/internal/logging"
	"github.com/wesleyorama2/curlkit/internal/output"
)

var version = "0.1.0"

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configPath string
	envName    string
	logLevel   string
	logFile    string
	format     string
	verbose    bool
	noColor    bool
}

// app carries the state prepared before a command runs
type app struct {
	opts    rootOptions
	config  *config.Config
	env     *config.Environment
	logger  *logging.Logger
	format  output.OutputFormat
	noColor bool
}

// NewRootCmd builds the command tree. Each call returns an independent
// tree, so tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	cmd := &cobra.Command{
		Use:     "curlkit",
		Short:   "A fluent cURL-style HTTP client",
		Version: version,
		Long: `curlkit sends HTTP requests the way cURL does and keeps every hop of the
exchange: status codes, headers and cookies of each redirect, plus tools to
pull values out of the response body.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", "", "Config file (default ./"+config.DefaultFile+" when present)")
	flags.StringVar(&a.opts.envName, "env", "", "Environment from the config file used to resolve URLs")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&a.opts.logFile, "log-file", "", "Also write JSON logs to this file, rotated by size")
	flags.StringVar(&a.opts.format, "format", "", "Output format (text, json, yaml)")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Enable verbose output")
	flags.BoolVar(&a.opts.noColor, "no-color", false, "Disable colored output")

	for _, method := range http.Methods() {
		cmd.AddCommand(newRequestCmd(a, method))
	}
	cmd.AddCommand(newBenchCmd(a))
	cmd.AddCommand(newProxyCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd, a
}

// Execute runs the command line and reports any error on stderr
func Execute() error {
	cmd, a := newRootCmd()
	if err := a.execute(cmd); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// execute runs cmd and closes the logger afterwards. cobra skips post-run
// hooks when a command fails, so the close cannot live there.
func (a *app) execute(cmd *cobra.Command) error {
	defer a.teardown(cmd)
	return cmd.Execute()
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Resolve(a.opts.configPath)
	if err != nil {
		return err
	}
	a.config = cfg

	if a.opts.envName != "" {
		env, err := cfg.Environment(a.opts.envName)
		if err != nil {
			return err
		}
		a.env = &env
	}

	formatName := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		formatName = a.opts.format
	}
	if a.format, err = output.ParseFormat(formatName); err != nil {
		return err
	}
	if !cmd.Flags().Changed("verbose") && cfg.Output.Verbose {
		a.opts.verbose = true
	}
	a.noColor = !output.UseColor(cmd.OutOrStdout(), a.opts.noColor || cfg.Output.NoColor)

	level := cfg.Log.Level
	if a.opts.verbose {
		level = "debug"
	}
	if cmd.Flags().Changed("log-level") {
		level = a.opts.logLevel
	}
	logFile := cfg.Log.File
	if a.opts.logFile != "" {
		logFile = a.opts.logFile
	}
	a.logger, err = logging.New(logging.Options{
		Level:      strings.TrimSpace(level),
		Console:    cmd.ErrOrStderr(),
		NoColor:    !output.UseColor(cmd.ErrOrStderr(), a.opts.noColor),
		File:       logFile,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	return err
}

func (a *app) teardown(cmd *cobra.Command) {
	if a.logger == nil {
		return
	}
	if err := a.logger.Close(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error closing log file:", err)
	}
	a.logger = nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "curlkit %s\n", version)
		},
	}
}
