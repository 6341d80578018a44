package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type rootOptions struct {
	configFile string
	logLevel   string
	v          *viper.Viper
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{
		logLevel: "info",
		v:        viper.New(),
	}
	cmd := &cobra.Command{
		Use:           "assetpipe",
		Short:         "Build web assets and prepare them for deployment",
		Long:          "assetpipe compiles scripts, stylesheets and fonts into a temporary directory (build), then minifies, optimises and revisions them into a distribution directory (dist).",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Path to the configuration file (default ./assetpipe.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level (debug, info, warn, error, none)")
	flags.String("src", "", "Directory holding the sources")
	flags.String("temp", "", "Directory receiving the build output")
	flags.String("dist", "", "Directory receiving the dist output")
	flags.Bool("legacy", false, "Also generate stylesheets for old browsers")
	for key, name := range map[string]string{
		"path.src":  "src",
		"path.temp": "temp",
		"path.dist": "dist",
		"legacy":    "legacy",
	} {
		cobra.CheckErr(opts.v.BindPFlag(key, flags.Lookup(name)))
	}

	cmd.AddCommand(
		newBuildCommand(opts),
		newDistCommand(opts),
		newGraphCommand(opts),
	)

	return cmd
}
