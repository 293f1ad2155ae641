// campaignd resolves the campaign client a caller is talking about.
//
// Usage:
//
//	campaignd [flags] serve                 run the MCP server on stdio
//	campaignd [flags] resolve [options]     run one resolution and print JSON
//	campaignd [flags] import <roster.yaml>  load a client roster
//	campaignd version                       print build information
//
// Logs go to stderr; stdout is reserved for the MCP protocol and command
// output.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/dshills/callcampaign-mcp/internal/config"
	"github.com/dshills/callcampaign-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// globalFlags are accepted before the subcommand
type globalFlags struct {
	configPath  string
	dbPath      string
	logLevel    string
	logFormat   string
	metricsAddr string
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var flags globalFlags

	flagSet := pflag.NewFlagSet("campaignd", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&flags.configPath, "config", "", "path to a YAML config file (default: $"+config.EnvConfig+")")
	flagSet.StringVar(&flags.dbPath, "db", "", "SQLite database path (default: $"+config.EnvDBPath+" or "+config.DefaultDBPath+")")
	flagSet.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.StringVar(&flags.logFormat, "log-format", "", "log format: text or json")
	flagSet.StringVar(&flags.metricsAddr, "metrics-addr", "", "listen address for /metrics while serving")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return fmt.Errorf("a command is required")
	}
	command, commandArgs := rest[0], rest[1:]

	if command == "version" || command == "--version" {
		printVersion(stdout)
		return nil
	}

	cfg, err := loadConfig(flagSet, flags)
	if err != nil {
		return err
	}

	switch command {
	case "serve":
		return runServe(cfg, commandArgs, stderr)
	case "resolve":
		return runResolve(cfg, commandArgs, stdout, stderr)
	case "import":
		return runImport(cfg, commandArgs, stdout, stderr)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// loadConfig layers defaults, the config file, the environment and the
// flags that were set explicitly
func loadConfig(flagSet *pflag.FlagSet, flags globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("db") {
		cfg.DBPath = flags.dbPath
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if flagSet.Changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	if flagSet.Changed("metrics-addr") {
		cfg.Metrics.Addr = flags.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Campaign Client Resolver\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Build Mode: %s\n", storage.BuildMode)
	fmt.Fprintf(w, "SQLite Driver: %s\n", storage.DriverName)
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `campaignd identifies campaign clients from partial caller information.

Usage:
  campaignd [flags] serve
  campaignd [flags] resolve (--campaign ID | --area AREA) [--name NAME] [--first-name NAME] [--phone-start DIGITS] [--phone-end DIGITS]
  campaignd [flags] import ROSTER.yaml
  campaignd version

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
