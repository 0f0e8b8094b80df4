package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/photonicat/epaper_reader/internal/config"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "epaper_reader",
		Short:         "Plain-text book reader for e-paper panels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file (defaults are used when empty)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level: debug, info, warn, error")

	root.AddCommand(runCmd(), paginateCmd(), renderCmd())

	if err := root.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and sets up logging from it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return cfg, err
	}
	log.SetLevel(lvl)
	return cfg, nil
}
