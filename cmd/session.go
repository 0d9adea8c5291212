package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/workflow"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Attendance session commands",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new attendance session",
	Long: `Ask the recognition service to start a new attendance session.
Students recognized afterwards are recorded in the new session.`,
	Args: cobra.NoArgs,
	RunE: runSessionStart,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStartCmd)
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ui := &workflow.UIState{}
	resp, err := workflow.NewSessionStart(client, ui).Run(context.Background())
	if err != nil {
		return fmt.Errorf("%s: %w", ui.Status(), err)
	}

	fmt.Println(ui.Status())
	if resp.Message != "" {
		fmt.Printf("  %s\n", resp.Message)
	}
	return nil
}
