// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type flagsT struct {
	stage  struct {
		count   int
		minSize string
		maxSize string
		unready bool
	}
	mark struct {
		idFile string
	}
	list struct {
		all bool
	}
	config struct {
		output string
		force  bool
	}
}

var archiverFlags = flagsT{}

// addRootFlags declares the persistent flags which override configuration keys
func addRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("root", "", "The archive root, holding the export (staging) and bundled directories")
	flags.String("staging-root", "", "The directory of staged exports (default <root>/export)")
	flags.String("bundled-root", "", "The directory of bundles (default <root>/bundled)")
	flags.String("max-bundle-size", "", "The maximum size of a bundle, e.g. 300GB (binary units)")
	flags.String("marker", "", "The name of the completion marker written last in an export")
	flags.Int("concurrency", 0, "The number of exports checksummed in parallel (default #cpus)")
	flags.String("metrics-file", "", "Write cycle metrics to this file, in the prometheus text format")
	flags.String("loglevel", "", "The logging level: none, debug, info, warn or error")
	flags.String("log-encoding", "", "The logging encoding: console or json")

	bindFlag(flags, "root", "root")
	bindFlag(flags, "staging_root", "staging-root")
	bindFlag(flags, "bundled_root", "bundled-root")
	bindFlag(flags, "max_bundle_size", "max-bundle-size")
	bindFlag(flags, "marker", "marker")
	bindFlag(flags, "concurrency", "concurrency")
	bindFlag(flags, "metrics_file", "metrics-file")
	bindFlag(flags, "log_level", "loglevel")
	bindFlag(flags, "log_encoding", "log-encoding")
}

func bindFlag(flags *pflag.FlagSet, key, name string) {
	if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
		logFatalln(err)
	}
}

func addFormatFlag(cmd *cobra.Command, defaultFormat string) string {
	format := "format"
	cmd.Flags().String(format, defaultFormat, "Output format: text, json or yaml")
	return format
}

func addStageFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&archiverFlags.stage.count, "count", 10, "The number of exports to stage")
	cmd.Flags().StringVar(&archiverFlags.stage.minSize, "min-size", "1KB", "The minimum size of a staged export")
	cmd.Flags().StringVar(&archiverFlags.stage.maxSize, "max-size", "1MB", "The maximum size of a staged export")
	cmd.Flags().BoolVar(&archiverFlags.stage.unready, "unready", false, "Do not write the completion marker")
}

func addIDFileFlag(cmd *cobra.Command) string {
	idFile := "id-file"
	cmd.Flags().StringVar(&archiverFlags.mark.idFile, idFile, "", "A file listing export ids, one per line")
	return idFile
}

func addListAllFlag(cmd *cobra.Command) string {
	all := "all"
	cmd.Flags().BoolVar(&archiverFlags.list.all, all, false, "Also list interrupted bundles, which have no committed manifest")
	return all
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&archiverFlags.config.output, "output", "", "Write the configuration to this file instead of stdout")
	cmd.Flags().BoolVar(&archiverFlags.config.force, "force", false, "Overwrite an existing output file")
}
