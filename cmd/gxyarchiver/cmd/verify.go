package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/oneconcern/gxyarchiver/pkg/core"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [bundle-id...]",
	Short: "Verify bundles against their manifest",
	Long: `Recompute the checksum of every export in the given bundles, or in all committed bundles,
and compare them with their manifest.

Exit status is 2 when any bundle does not match its manifest.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, engine, logger, err := loadEngine()
		if err != nil {
			wrapFatalln("verify", err)
			return
		}
		defer func() { _ = logger.Sync() }()

		verifier := core.NewVerifier(afero.NewOsFs(), engine.BundledRoot, core.Logger(logger), core.Concurrency(engine.Concurrency))
		var reports []core.VerifyReport
		if len(args) == 0 {
			reports, err = verifier.VerifyAll(cmd.Context())
			if err != nil {
				wrapFatalln("verify bundles", err)
				return
			}
		} else {
			for _, bundleID := range args {
				report, err := verifier.Verify(cmd.Context(), bundleID)
				if err != nil {
					wrapFatalln("verify bundle "+bundleID, err)
					return
				}
				reports = append(reports, report)
			}
		}

		if err = format(cmd, reports, FormatterFunc(printReports)); err != nil {
			wrapFatalln("print verification", err)
			return
		}
		for _, report := range reports {
			if !report.OK() {
				wrapFatalWithCodef(exitIntegrity, "integrity check failed for bundle %s", report.BundleID)
				return
			}
		}
	},
}

func printReports(w io.Writer, data interface{}) error {
	for _, report := range data.([]core.VerifyReport) {
		if report.OK() {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%d exports\n", report.BundleID, color.GreenString("ok"), report.Checked); err != nil {
				return err
			}
			continue
		}
		for _, issue := range report.Issues {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", report.BundleID, color.RedString("failed"), issue.UnitID, issue.Reason); err != nil {
				return err
			}
		}
	}
	return nil
}

func init() {
	addFormatFlag(verifyCmd, "text")
	rootCmd.AddCommand(verifyCmd)
}
