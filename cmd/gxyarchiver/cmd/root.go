// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/oneconcern/gxyarchiver/pkg/config"
	"github.com/oneconcern/gxyarchiver/pkg/dlogger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "GXYARCHIVER"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gxyarchiver",
	Short: "gxyarchiver consolidates exported Galaxy histories into bundles",
	Long: `gxyarchiver consolidates exported Galaxy histories into size-bounded bundles, ready to be shipped to tape.

Exports are staged as one directory per history under <root>/export. Once an export is complete
(its completion marker is present), the bundle command packs it with others into a bundle under
<root>/bundled/<bundle-id>, along with a manifest recording the size, checksum and origin of every history.

Moves are atomic renames and a bundle is only committed once all its histories have been moved,
so that an interrupted run may always be safely restarted.
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)
	addRootFlags(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("max_bundle_size", defaults.MaxBundleSize)
	viper.SetDefault("marker", defaults.Marker)
	viper.SetDefault("concurrency", defaults.Concurrency)
	viper.SetDefault("log_level", defaults.LogLevel)
	viper.SetDefault("log_encoding", defaults.LogEncoding)

	if os.Getenv(envPrefix+"_CONFIG") != "" {
		viper.SetConfigFile(os.Getenv(envPrefix + "_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.gxyarchiver")
		viper.AddConfigPath("/etc/gxyarchiver")
		viper.SetConfigName("gxyarchiver")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			wrapFatalln("reading config file", err)
		}
	}
}

// loadSettings resolves the configuration from flags, environment and config file, in that order of precedence
func loadSettings() (config.Settings, error) {
	settings := config.Defaults()
	if err := viper.Unmarshal(&settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// loadEngine resolves and validates the engine configuration, and sets up logging
func loadEngine() (config.Settings, config.Engine, *zap.Logger, error) {
	settings, err := loadSettings()
	if err != nil {
		return settings, config.Engine{}, nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger, err := dlogger.GetLogger(settings.LogLevel, dlogger.Encoding(settings.LogEncoding))
	if err != nil {
		return settings, config.Engine{}, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", zap.String("path", used))
	}
	engine, err := settings.Engine()
	if err != nil {
		return settings, engine, logger, err
	}
	return settings, engine, logger, nil
}
