// Package app wires configuration, logging, the CLI runner and the HTTP
// server into the fibbench executable.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/agbru/fibbench/internal/cli"
	"github.com/agbru/fibbench/internal/config"
	apperrors "github.com/agbru/fibbench/internal/errors"
	"github.com/agbru/fibbench/internal/logging"
	"github.com/agbru/fibbench/internal/server"
	"github.com/agbru/fibbench/internal/service"
	"github.com/agbru/fibbench/internal/ui"
)

// Application is one fibbench invocation.
type Application struct {
	// Config holds the parsed and validated configuration.
	Config config.AppConfig
	// Service runs the calculations of CLI commands. The server builds its
	// own with server limits.
	Service *service.CalculatorService
	// ErrWriter receives logs and status lines (typically os.Stderr).
	ErrWriter io.Writer
}

// New parses args (os.Args style, program name first) into an Application.
// A -h request is returned as an error matching config.IsHelp.
func New(args []string, errWriter io.Writer) (*Application, error) {
	programName := "fibbench"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	return &Application{
		Config:    cfg,
		Service:   service.NewCalculatorService(service.CLILimits()),
		ErrWriter: errWriter,
	}, nil
}

// Execute is the whole program: version and help handling, parsing, then
// Run. It returns the process exit code.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) > 1 && HasVersionFlag(args[1:]) {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}
	a, err := New(args, errOut)
	if err != nil {
		if config.IsHelp(err) {
			return apperrors.ExitSuccess
		}
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return apperrors.ExitCode(err)
	}
	return a.Run(ctx, out)
}

// Run executes the configured command and returns an exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.Init(a.Config.NoColor)
	a.setupLogging()

	if a.Config.Command == config.CommandServe {
		return a.runServer(ctx)
	}
	return a.runCommand(ctx, out)
}

// setupLogging routes the global logger to ErrWriter. JSON output keeps
// machine-readable log lines; otherwise they are formatted for a console.
func (a *Application) setupLogging() {
	level, err := logging.ParseLevel(a.Config.LogLevel)
	if err != nil {
		// rejected by config validation already
		level, _ = logging.ParseLevel(config.DefaultLogLevel)
	}
	logging.Setup(a.ErrWriter, level, !a.Config.JSONOutput && !a.Config.NoColor)
}

func (a *Application) runServer(ctx context.Context) int {
	timeouts := server.DefaultServerTimeouts()
	timeouts.RequestTimeout = a.Config.Timeout

	srv := server.NewServer(":"+a.Config.Port,
		server.WithLogger(logging.NewDefaultLogger()),
		server.WithTimeouts(timeouts),
	)
	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

func (a *Application) runCommand(ctx context.Context, out io.Writer) int {
	ctx, lifecycle := SetupLifecycle(ctx, a.Config.Timeout)
	defer lifecycle.Cleanup()

	runner := cli.NewRunner(a.Service, out, logging.NewDefaultLogger())
	start := time.Now()
	err := runner.Run(ctx, a.Config)
	if err == nil {
		return apperrors.ExitSuccess
	}

	var elapsed time.Duration
	if apperrors.IsContextError(err) {
		elapsed = time.Since(start).Round(time.Millisecond)
	}
	return apperrors.HandleCalculationError(err, elapsed, a.ErrWriter, cli.CLIColorProvider{})
}
