// Command backoffice signs in to the back-office API and browses it from the
// terminal. The session is kept in the configured token store, a file by
// default, so it survives between invocations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/twy/backoffice/app"
	"github.com/twy/backoffice/config"
	"github.com/twy/backoffice/internal/observability"
	"go.uber.org/zap"
)

const usage = `usage: backoffice <command> [flags]

commands:
  login     sign in with -email and -password (or BACKOFFICE_PASSWORD)
  logout    end the session
  whoami    show the signed-in user
  menu      list the sections your role can open
  users     list users
  branches  list branches
  loads     list loads
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := config.New(ctx)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if os.Getenv("STORE_BACKEND") == "" {
		cfg.Store.Backend = config.BackendFile
	}

	// the CLI talks to the user on stdout, so logs stay quiet unless asked for
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger, err := observability.NewLogger(level, "console")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	c := &cli{loginPath: cfg.API.LoginPath, out: stdout, errOut: stderr}
	deps, err := app.NewDependencies(ctx, cfg, logger, c)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer deps.Close(ctx)
	c.deps = deps

	if err := c.dispatch(ctx, args[0], args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "error:", err)
		}
		logger.Debug("command failed", zap.String("command", args[0]), zap.Error(err))
		return 1
	}
	return 0
}
