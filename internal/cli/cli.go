package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/transformgrid/internal/app"
	"github.com/specialistvlad/transformgrid/internal/buildop"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read as configuration,
// e.g. TRANSFORMGRID_LOG_LEVEL for --log-level.
const EnvPrefix = "TRANSFORMGRID"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// newCommand builds the root command. Flags are bound into v; onRun is
// called with the plan path once the arguments were parsed.
func newCommand(v *viper.Viper, output io.Writer, onRun func(cmd *cobra.Command, planPath string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transformgrid [flags] [PLAN_PATH]",
		Short: "TransformGrid - runs chains of artifact transforms declared in HCL.",
		Long: `TransformGrid - runs chains of artifact transforms declared in HCL.

PLAN_PATH is a single .hcl file or a directory containing .hcl files.
Every flag can also be set in the config file or through an environment
variable named ` + EnvPrefix + `_<FLAG>, e.g. ` + EnvPrefix + `_LOG_LEVEL.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfigFile(v); err != nil {
				return err
			}
			path := v.GetString("plan")
			if len(args) > 0 {
				path = args[0]
			}
			return onRun(cmd, path)
		},
	}
	cmd.SetOut(output)
	cmd.SetErr(output)

	flags := cmd.Flags()
	flags.StringP("plan", "p", "", "Path to the plan file or directory.")
	flags.String("config", "", "Path to a YAML config file.")
	flags.String("output-dir", "build/transformgrid", "Root directory of all transform outputs.")
	flags.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	flags.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.Int("workers", 10, "Number of concurrent workers for the executor.")
	flags.Bool("lenient", false, "Report failed chains without failing the run.")
	flags.String("graph-dot", "", "Write the execution graph in Graphviz DOT format to this file.")
	flags.String("history-db", "", "SQLite database to record every run in. Empty disables the history.")
	flags.String("otlp-endpoint", "", "OTLP gRPC endpoint for build-operation spans. Empty disables export.")
	flags.Float64("trace-sample-rate", 1.0, "Fraction of traces to sample, 0.0 to 1.0.")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Binding only fails for a nil flag set.
	_ = v.BindPFlags(flags)

	return cmd
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	v := viper.New()

	var config *app.Config
	var parseErr error
	cmd := newCommand(v, output, func(cmd *cobra.Command, path string) error {
		if path == "" {
			slog.Debug("No plan path provided, printing usage and exiting.")
			return cmd.Help()
		}
		config, parseErr = buildConfig(v, path)
		return nil
	})
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return nil, false, usageError("%s", err.Error())
	}
	if parseErr != nil {
		return nil, false, parseErr
	}
	if config == nil {
		// Help was requested.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// readConfigFile merges the --config file into v. Flags set on the command
// line still take precedence over its values.
func readConfigFile(v *viper.Viper) error {
	file := v.GetString("config")
	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	slog.Debug("Config file loaded.", "file", v.ConfigFileUsed())
	return nil
}

func buildConfig(v *viper.Viper, path string) (*app.Config, error) {
	tracing := buildop.DefaultTracingConfig()
	tracing.OTLPEndpoint = v.GetString("otlp-endpoint")
	tracing.SampleRate = v.GetFloat64("trace-sample-rate")

	config, err := app.NewConfig(app.Config{
		PlanPath:        path,
		OutputDir:       v.GetString("output-dir"),
		HealthcheckPort: v.GetInt("healthcheck-port"),
		LogFormat:       strings.ToLower(v.GetString("log-format")),
		LogLevel:        strings.ToLower(v.GetString("log-level")),
		WorkerCount:     v.GetInt("workers"),
		Lenient:         v.GetBool("lenient"),
		GraphDOTPath:    v.GetString("graph-dot"),
		HistoryPath:     v.GetString("history-db"),
		Tracing:         tracing,
	})
	if err != nil {
		return nil, usageError("%s", err.Error())
	}
	return config, nil
}
