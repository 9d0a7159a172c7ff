package main

import (
	"strings"

	"github.com/ComposableFi/composable-sub011/io/logs"
	"github.com/urfave/cli/v2"
)

var (
	// DataDirFlag defines a path on disk where the client database is stored.
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the light client database",
		Value: "lightclient-data",
	}
	// VerbosityFlag defines the logrus configuration.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info=default, warn, error, fatal, panic)",
		Value: "info",
	}
	// LogFormat specifies the log output format.
	LogFormat = &cli.StringFlag{
		Name:  "log-format",
		Usage: "Specify log formatting. Supports: " + strings.Join(logs.Formats, ", "),
		Value: "text",
	}
	// LogFileName specifies the log output file name.
	LogFileName = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Specify log file name, relative or absolute",
	}
	// ConfigFileFlag specifies a YAML file to load flag values from.
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config-file",
		Usage: "The filepath to a yaml file with flag values",
	}
	// LightClientConfigFlag loads verification limits from a YAML file.
	LightClientConfigFlag = &cli.StringFlag{
		Name:  "light-client-config",
		Usage: "The filepath to a yaml file overriding the verification limits",
	}
	// MinimalConfigFlag selects the reduced limits used for testing.
	MinimalConfigFlag = &cli.BoolFlag{
		Name:  "minimal-config",
		Usage: "Use the minimal verification limits",
	}
	// MetricsFileFlag writes all metrics to a file when the command exits.
	MetricsFileFlag = &cli.StringFlag{
		Name:  "metrics-file",
		Usage: "Write metrics in the prometheus text format to this file on exit",
	}
)

var (
	clientIDFlag = &cli.StringFlag{
		Name:     "client-id",
		Usage:    "Identifier of the client",
		Required: true,
	}
	clientStateFlag = &cli.StringFlag{
		Name:     "client-state",
		Usage:    "File holding a hex encoded client state",
		Required: true,
	}
	consensusStateFlag = &cli.StringFlag{
		Name:     "consensus-state",
		Usage:    "File holding a hex encoded consensus state",
		Required: true,
	}
	messageFlag = &cli.StringFlag{
		Name:     "message",
		Usage:    "File holding a hex encoded header or misbehaviour",
		Required: true,
	}
	heightFlag = &cli.StringFlag{
		Name:     "height",
		Usage:    "Proof height as <revision number>-<revision height>",
		Required: true,
	}
	prefixFlag = &cli.StringFlag{
		Name:  "prefix",
		Usage: "Commitment prefix prepended to the path",
	}
	pathFlag = &cli.StringFlag{
		Name:     "path",
		Usage:    "Storage path to prove",
		Required: true,
	}
	proofFlag = &cli.StringFlag{
		Name:     "proof",
		Usage:    "File holding a hex encoded storage proof",
		Required: true,
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "File holding the hex encoded value; absence proves non-membership",
	}
	proofClientFlag = &cli.StringFlag{
		Name:     "proof-client",
		Usage:    "File holding the storage proof of the upgraded client state",
		Required: true,
	}
	proofConsensusFlag = &cli.StringFlag{
		Name:     "proof-consensus",
		Usage:    "File holding the storage proof of the upgraded consensus state",
		Required: true,
	}
)
