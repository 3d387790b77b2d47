// Command sinkadmin serves the sink configuration admin API.
package main

import (
	"fmt"
	"os"

	"github.com/joeydtaylor/steeze-sinks/pkg/serverfx"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var manifestPath string

	flagSet := pflag.NewFlagSet("sinkadmin", pflag.ContinueOnError)
	flagSet.StringVarP(&manifestPath, "manifest", "m", "", "service manifest (default: $SINKADMIN_MANIFEST or sinkadmin.toml)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	opts := []serverfx.Option{serverfx.WithService("sinkadmin")}
	if manifestPath != "" {
		opts = append(opts, serverfx.WithManifestPath(manifestPath))
	}
	app := fx.New(serverfx.Module(opts...))
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `sinkadmin: manage telemetry sink configurations over HTTP.

Backend publishing is configured with ELECTRICIAN_* and OAUTH_* variables;
authentication with SESSION_*, ASSERTION_* and ADMIN_ROLE_NAME.

Usage:
  sinkadmin [flags]

Flags:
%s`, flagSet.FlagUsages())
}
