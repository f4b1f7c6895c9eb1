package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/oneconcern/gxyarchiver/pkg/core"
	"github.com/oneconcern/gxyarchiver/pkg/storage/localfs"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List bundles",
	Long:    "List the committed bundles, oldest first, including those with an unreadable manifest. Use --all to also report bundles left over by an interrupted run.",
	Aliases: []string{"ls"},
	Run: func(cmd *cobra.Command, args []string) {
		_, engine, logger, err := loadEngine()
		if err != nil {
			wrapFatalln("list", err)
			return
		}
		defer func() { _ = logger.Sync() }()

		store := localfs.New(afero.NewBasePathFs(afero.NewOsFs(), engine.BundledRoot))
		bundles, err := core.ListBundles(cmd.Context(), store)
		if err != nil {
			wrapFatalln("list bundles", err)
			return
		}
		selected := make([]core.BundleInfo, 0, len(bundles))
		for _, b := range bundles {
			if b.State == core.BundleCommitted || b.State == core.BundleCorrupt || archiverFlags.list.all {
				selected = append(selected, b)
			}
		}
		if err = format(cmd, selected, FormatterFunc(printBundles)); err != nil {
			wrapFatalln("print bundles", err)
			return
		}
	},
}

func printBundles(w io.Writer, data interface{}) error {
	for _, b := range data.([]core.BundleInfo) {
		var err error
		switch {
		case b.State == core.BundleCorrupt:
			_, err = fmt.Fprintf(w, "%s\t%s\t%s\n", b.BundleID, color.RedString(string(b.State)), b.Reason)
		case b.Manifest == nil:
			_, err = fmt.Fprintf(w, "%s\t%s\n", b.BundleID, color.YellowString(string(b.State)))
		default:
			_, err = fmt.Fprintf(w, "%s\t%s\t%d exports\t%s\t%s\n",
				b.BundleID,
				string(b.State),
				len(b.Manifest.Units),
				units.HumanSize(float64(b.Manifest.TotalSize)),
				color.HiBlackString(b.Manifest.CreatedAt.Format(time.RFC3339)),
			)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	addFormatFlag(listCmd, "text")
	addListAllFlag(listCmd)
	rootCmd.AddCommand(listCmd)
}
