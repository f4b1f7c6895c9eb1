package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/oneconcern/gxyarchiver/internal/rand"
	"github.com/oneconcern/gxyarchiver/pkg/config"
	"github.com/oneconcern/gxyarchiver/pkg/core"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Stage synthetic exports, for testing",
	Long: `Create exports filled with random data in the staging root, as an exporter would.

Each export is named after a random history id and gets the completion marker once all its data is written,
unless --unready is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, engine, logger, err := loadEngine()
		if err != nil {
			wrapFatalln("stage", err)
			return
		}
		defer func() { _ = logger.Sync() }()

		minSize, err := config.ParseSize(archiverFlags.stage.minSize)
		if err != nil {
			wrapFatalln("min-size", err)
			return
		}
		maxSize, err := config.ParseSize(archiverFlags.stage.maxSize)
		if err != nil {
			wrapFatalln("max-size", err)
			return
		}
		if maxSize < minSize {
			wrapFatalln(fmt.Sprintf("max-size %s is lower than min-size %s", archiverFlags.stage.maxSize, archiverFlags.stage.minSize), nil)
			return
		}

		fs := afero.NewOsFs()
		if err = fs.MkdirAll(engine.StagingRoot, 0700); err != nil {
			wrapFatalln("create staging root", err)
			return
		}
		marker := core.MarkerFile{Name: engine.Marker}
		for i := 0; i < archiverFlags.stage.count; i++ {
			id := hex.EncodeToString(rand.Bytes(8))
			size := rand.Between(minSize, maxSize)
			unitPath := filepath.Join(engine.StagingRoot, id)
			if err = stageUnit(fs, unitPath, size); err != nil {
				wrapFatalln("stage export "+id, err)
				return
			}
			if !archiverFlags.stage.unready {
				if err = marker.Mark(fs, unitPath); err != nil {
					wrapFatalln("mark export "+id, err)
					return
				}
			}
			logger.Debug("staged export", zap.String("unit", id), zap.Int64("size", size))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, units.HumanSize(float64(size)))
		}
	},
}

// stageUnit writes size random bytes spread over a few dataset files
func stageUnit(fs afero.Fs, unitPath string, size int64) error {
	datasets := filepath.Join(unitPath, "datasets")
	if err := fs.MkdirAll(datasets, 0700); err != nil {
		return err
	}
	files := rand.Between(1, 3)
	remaining := size
	for i := int64(0); i < files; i++ {
		chunk := remaining / (files - i)
		if err := writeRandom(fs, filepath.Join(datasets, fmt.Sprintf("dataset_%d.dat", i)), chunk); err != nil {
			return err
		}
		remaining -= chunk
	}
	return nil
}

func writeRandom(fs afero.Fs, path string, size int64) error {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, rand.Reader(size)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func init() {
	addStageFlags(stageCmd)
	rootCmd.AddCommand(stageCmd)
}
