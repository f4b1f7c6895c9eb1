package cmd

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/gxyarchiver/pkg/core"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var markCmd = &cobra.Command{
	Use:   "mark [export-id...]",
	Short: "Mark exports as complete",
	Long: `Write the completion marker in staged exports, making them eligible for the next bundling cycle.

This is what an exporter does once it has finished writing an export. Ids may be given as arguments
or listed in a file with --id-file (one per line, # starts a comment).`,
	Run: func(cmd *cobra.Command, args []string) {
		_, engine, logger, err := loadEngine()
		if err != nil {
			wrapFatalln("mark", err)
			return
		}
		defer func() { _ = logger.Sync() }()

		ids := args
		if archiverFlags.mark.idFile != "" {
			fromFile, err := readIDFile(archiverFlags.mark.idFile)
			if err != nil {
				wrapFatalln("read id file", err)
				return
			}
			ids = append(ids, fromFile...)
		}
		if len(ids) == 0 {
			wrapFatalln("no export id given", nil)
			return
		}

		fs := afero.NewOsFs()
		marker := core.MarkerFile{Name: engine.Marker}
		for _, id := range ids {
			if id != filepath.Base(id) || model.IsHidden(id) {
				wrapFatalln("invalid export id "+id, nil)
				return
			}
			if err = marker.Mark(fs, filepath.Join(engine.StagingRoot, id)); err != nil {
				wrapFatalln("mark export "+id, err)
				return
			}
			logger.Info("export marked complete", zap.String("unit", id))
		}
	},
}

func readIDFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids, scanner.Err()
}

func init() {
	addIDFileFlag(markCmd)
	rootCmd.AddCommand(markCmd)
}
