package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
	logJSON  bool

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "mmdbtool",
	Short:         "Inspect and query MaxMind DB (.mmdb) files",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.mmdbtool.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit log lines as JSON")

	rootCmd.AddCommand(metadataCmd, lookupCmd, verifyCmd, dumpCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mmdbtool")
	}

	viper.SetEnvPrefix("MMDBTOOL")
	viper.AutomaticEnv()
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)

	_ = viper.ReadInConfig() // absence of a config file is not an error
}

func initLogger() {
	level := logLevel
	if level == "" {
		level = viper.GetString("log_level")
	}

	asJSON := logJSON || viper.GetBool("log_json")

	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger = slog.New(handler)
}
