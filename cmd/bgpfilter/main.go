// Command bgpfilter manages BGP route filter rules for MikroTik RouterOS v7:
// an HTTP server with an embedded editor, plus offline tools that work on
// YAML rule files.
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

	"github.com/peterbourgon/ff/v3/ffcli"
)

// envPrefix is the prefix of environment variables read by serve.
const envPrefix = "BGPFILTER"

type cliEnv struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], cliEnv{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr})
	stop()
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "bgpfilter:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, env cliEnv) error {
	root := newRootCommand(env)
	if err := root.Parse(args); err != nil {
		return err
	}
	return root.Run(ctx)
}

func newRootCommand(env cliEnv) *ffcli.Command {
	fs := flag.NewFlagSet("bgpfilter", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return &ffcli.Command{
		Name:       "bgpfilter",
		ShortUsage: "bgpfilter <subcommand> [flags] [args]",
		FlagSet:    fs,
		Subcommands: []*ffcli.Command{
			newServeCommand(env),
			newImportCommand(env),
			newRenderCommand(env),
			newLintCommand(env),
			newListCommand(env),
			newHealthcheckCommand(env),
		},
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
	}
}
