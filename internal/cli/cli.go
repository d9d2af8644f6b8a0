package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/pdp2c/internal/app"
	"github.com/vk/pdp2c/internal/hostlink"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("pdp2c", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
pdp2c - compiles a multi-layer perceptron description into core
configuration regions for a message-passing many-core host.

Usage:
  pdp2c [options] [NETWORK_PATH]

Arguments:
  NETWORK_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	networkFlag := flagSet.String("network", "", "Path to the network description file or directory.")
	nFlag := flagSet.String("n", "", "Path to the network description file or directory (shorthand).")
	outFlag := flagSet.String("out", app.DefaultOutDir, "Directory for region files and the manifest.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	hostURLFlag := flagSet.String("host-url", "", "socket.io URL of a remote host. Empty places the graph locally.")
	hostTimeoutFlag := flagSet.Duration("host-timeout", hostlink.DefaultTimeout, "Time limit for the whole exchange with a remote host.")
	budgetFlag := flagSet.Int("memory-budget", 0, "Advisory per-core memory budget in bytes. 0 is disabled.")
	inspectFlag := flagSet.String("inspect", "", "Print the regions of the core with this label and exit.")
	fmtFlag := flagSet.Bool("fmt", false, "Print the canonical form of the description and exit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *networkFlag != "" {
		path = *networkFlag
	} else if *nFlag != "" {
		path = *nFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Network path determined.", "path", path)

	if path == "" {
		slog.Debug("No network path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(flagSet.Args()[1:], " "))}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		NetworkPath:  path,
		OutDir:       *outFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		HostURL:      *hostURLFlag,
		HostTimeout:  *hostTimeoutFlag,
		MemoryBudget: *budgetFlag,
		Inspect:      *inspectFlag,
		Format:       *fmtFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
