package cmd

import (
	"io"
	"os"

	"github.com/oneconcern/gxyarchiver/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// configCmd represents the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage the configuration",
	Long: `Commands to manage the gxyarchiver configuration.

The configuration is read from gxyarchiver.yaml in the current directory, $HOME/.gxyarchiver or /etc/gxyarchiver
(or the file set by $GXYARCHIVER_CONFIG), then overridden by GXYARCHIVER_* environment variables and flags.`,
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a config file",
	Long:  "Generate a config file from the current settings, e.g. gxyarchiver --root /archive config generate --output gxyarchiver.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings()
		if err != nil {
			wrapFatalln("loading configuration", err)
			return
		}
		if _, err = settings.Engine(); err != nil {
			wrapFatalln("invalid configuration", err)
			return
		}
		if err = writeSettings(cmd.OutOrStdout(), settings); err != nil {
			wrapFatalln("write config", err)
			return
		}
	},
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the configuration in use",
	Long:  "Print the configuration resolved from config file, environment and flags",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings()
		if err != nil {
			wrapFatalln("loading configuration", err)
			return
		}
		engine, err := settings.Engine()
		if err != nil {
			wrapFatalln("invalid configuration", err)
			return
		}
		if err = format(cmd, engine, yamlFormatter); err != nil {
			wrapFatalln("print config", err)
			return
		}
	},
}

func writeSettings(stdout io.Writer, settings config.Settings) error {
	o, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	if archiverFlags.config.output == "" {
		_, err = stdout.Write(o)
		return err
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !archiverFlags.config.force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(archiverFlags.config.output, flags, 0600)
	if err != nil {
		return err
	}
	if _, err = f.Write(o); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func init() {
	addOutputFlags(configGenerateCmd)
	addFormatFlag(configDumpCmd, "yaml")
	configCmd.AddCommand(configGenerateCmd)
	configCmd.AddCommand(configDumpCmd)
	rootCmd.AddCommand(configCmd)
}
