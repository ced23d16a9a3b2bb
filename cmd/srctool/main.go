// srctool is a CLI utility for SRC mesh containers and model revisions.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/supermesh/internal/config"
	"github.com/Faultbox/supermesh/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "dump":
		cmdDump(args)
	case "export":
		cmdExport(args)
	case "import":
		cmdImport(args)
	case "serve":
		cmdServe(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`srctool - SRC mesh container utility

Usage:
  srctool <command> [options]

Commands:
  info <file.src.mpc>                 Show container and mesh information
  dump <file.src.mpc|file.json.mpc>   Dump the embedded header or a mapping sidecar
  export <asset> [out-dir]            Convert <asset>.json.mpc + <asset>.src.mpc to glb
  import [options]                    Import a model revision from the API to glb
  serve [root]                        Serve a directory in the API layout

Common options:
  -config <path>    Config file (default srctool.yaml or config.yaml in the
                    working directory, then the user config dir)

Environment:
  SUPERMESH_CONFIG, SUPERMESH_HOST, SUPERMESH_API_KEY
  -debug            Debug logging

Examples:
  srctool info 3f2a.src.mpc
  srctool export ./acme/house/3f2a ./out
  srctool import -host api.example.com -key $KEY -teamspace acme -model house
  srctool serve -addr :8090 ./mirror`)
}

// setup parses the subcommand flags and initializes configuration and
// logging. It exits on error.
func setup(name string, args []string, extra func(fs *flag.FlagSet)) (*config.Config, *flag.FlagSet) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	if extra != nil {
		extra(fs)
	}
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("Config: %+v", redacted(cfg))
	return cfg, fs
}

func redacted(cfg *config.Config) config.Config {
	c := *cfg
	if c.API.APIKey != "" {
		c.API.APIKey = "***"
	}
	return c
}

func fatal(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	logger.Sync()
	os.Exit(1)
}
