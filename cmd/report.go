package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/workflow"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Download the attendance report",
	Long: `Download the attendance report PDF generated by the recognition service.

The file is written to --out (default REPORT_DIR) under the configured file name.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().String("out", "", "Directory to save the report to (default from REPORT_DIR)")
	reportCmd.Flags().String("name", "", "File name (default from the service or attendance_report.pdf)")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	saver := workflow.DirSaver{Dir: cfg.Report.Dir, FileName: cfg.Report.FileName}
	if out := mustGetString(cmd, "out"); out != "" {
		saver.Dir = out
	}
	if name := mustGetString(cmd, "name"); name != "" {
		saver.FileName = name
	}

	ui := &workflow.UIState{}
	path, err := workflow.NewReportDownload(client, ui).Run(context.Background(), saver)
	if err != nil {
		return fmt.Errorf("%s: %w", ui.Status(), err)
	}

	fmt.Printf("%s: %s\n", ui.Status(), path)
	return nil
}
