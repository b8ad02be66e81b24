// File: cmd/app/main.go
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeonjuho23/claude-daily/internal/config"
	"github.com/jeonjuho23/claude-daily/internal/infra/logging"
	"github.com/jeonjuho23/claude-daily/internal/infra/metrics"
)

var (
	version = "dev"
	commit  = "none"
)

type rootFlags struct {
	cfgPath string
	dev     bool
}

func main() {
	var flags rootFlags
	root := &cobra.Command{
		Use:           "claude-daily",
		Short:         "Scheduled CS explainer generation and publishing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.cfgPath, "config", "c", "config.yaml", "path to YAML config file")
	root.PersistentFlags().BoolVar(&flags.dev, "dev", false, "developer mode (console logs, noop AI without keys)")

	root.AddCommand(serveCMD(&flags), migrateCMD(&flags), runCMD(&flags), reportCMD(&flags))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// load reads the config and builds the root logger shared by every subcommand.
func load(flags *rootFlags) (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.Load(flags.cfgPath, flags.dev)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	return cfg, logger, nil
}
