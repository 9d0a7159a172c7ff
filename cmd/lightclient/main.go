// Package main is a command line front end for the light client keeper. It
// creates clients, applies headers and misbehaviour read from files and
// verifies storage proofs against stored consensus states.
package main

import (
	"os"

	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/io/logs"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/ComposableFi/composable-sub011/monitoring/prometheus"
	"github.com/ComposableFi/composable-sub011/runtime/version"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

var log = logrus.WithField("prefix", "main")

var appFlags = []cli.Flag{
	altsrc.NewStringFlag(DataDirFlag),
	altsrc.NewStringFlag(VerbosityFlag),
	altsrc.NewStringFlag(LogFormat),
	altsrc.NewStringFlag(LogFileName),
	altsrc.NewStringFlag(LightClientConfigFlag),
	altsrc.NewBoolFlag(MinimalConfigFlag),
	altsrc.NewStringFlag(MetricsFileFlag),
	ConfigFileFlag,
}

func newApp() *cli.App {
	app := &cli.App{}
	app.Name = "lightclient"
	app.Usage = "verifies parachain headers finalized by BEEFY or GRANDPA"
	app.Version = version.Version()
	app.Flags = appFlags
	app.Commands = commands
	app.Before = before
	app.After = after
	return app
}

func before(ctx *cli.Context) error {
	// Load any flags from file, if specified.
	if ctx.IsSet(ConfigFileFlag.Name) {
		if err := altsrc.InitInputSourceWithContext(
			appFlags,
			altsrc.NewYamlSourceFromFlagFunc(ConfigFileFlag.Name))(ctx); err != nil {
			return err
		}
	}

	logFileName := ctx.String(LogFileName.Name)
	if err := logs.SetFormat(ctx.String(LogFormat.Name), logFileName != ""); err != nil {
		return err
	}
	level, err := logrus.ParseLevel(ctx.String(VerbosityFlag.Name))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	if logFileName != "" {
		if err := logs.ConfigurePersistentLogging(logFileName); err != nil {
			log.WithError(err).Error("Failed to configure logging to disk")
		}
	}
	counter, err := prometheus.NewLogCounter(promclient.DefaultRegisterer, logrus.DebugLevel, primitives.KindName)
	if err != nil {
		return err
	}
	logrus.AddHook(counter)

	if ctx.Bool(MinimalConfigFlag.Name) {
		log.Warn("Using minimal verification limits")
		params.OverrideLightClientConfig(params.MinimalConfig())
	}
	if ctx.IsSet(LightClientConfigFlag.Name) {
		if err := params.LoadAndOverride(ctx.String(LightClientConfigFlag.Name)); err != nil {
			return err
		}
	}
	return nil
}

func after(ctx *cli.Context) error {
	if path := ctx.String(MetricsFileFlag.Name); path != "" {
		return prometheus.WriteTextfile(path, promclient.DefaultGatherer)
	}
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
