package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "List the latest attendance records",
	Args:  cobra.NoArgs,
	RunE:  runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.Flags().Int("limit", 0, "Maximum number of records (default from ATTENDANCE_LIMIT)")
	attendanceCmd.Flags().Bool("json", false, "Output as JSON")
}

func runAttendance(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit := intOrConfig(cmd, "limit", cfg.API.AttendanceLimit)
	if limit <= 0 {
		limit = constants.DefaultAttendanceLimit
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	records, err := client.ListAttendance(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("failed to list attendance: %w", err)
	}

	if jsonOutput {
		return outputJSON(records)
	}
	printAttendance(records)
	return nil
}

func printAttendance(records []recognition.AttendanceRecord) {
	if len(records) == 0 {
		fmt.Println("No attendance recorded yet.")
		return
	}

	fmt.Printf("%-6s %-20s %-20s %s\n", "ID", "STUDENT", "TIME", "SOURCE")
	for _, r := range records {
		ts := "-"
		if !r.Timestamp.IsZero() {
			ts = r.Timestamp.Local().Format(time.DateTime)
		}
		fmt.Printf("%-6d %-20s %-20s %s\n", r.ID, r.StudentID, ts, r.Source)
	}
	fmt.Printf("\n%d record(s)\n", len(records))
}
