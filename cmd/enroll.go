package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
	"github.com/kozaktomas/attendance-kiosk/internal/workflow"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <student-id> [image...]",
	Short: "Enroll a student from images or camera snapshots",
	Long: `Register reference images for a student with the recognition service.

With image arguments the files are uploaded as one enrollment. Without them
the configured number of frames is taken from the camera, one after another,
while the student looks at it.

Examples:
  attendance-kiosk enroll S1024 front.jpg left.jpg right.jpg
  attendance-kiosk enroll S1024 --frames 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	enrollCmd.Flags().Int("frames", 0, "Number of camera frames to capture (default from ENROLL_FRAMES)")
	enrollCmd.Flags().Bool("json", false, "Output as JSON")
	addCameraFlags(enrollCmd)
}

func newProgressBar(total int, description, unit string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// progressSource advances a progress bar for every captured frame.
type progressSource struct {
	source workflow.FrameSource
	bar    *progressbar.ProgressBar
}

func (p progressSource) CaptureFrame(ctx context.Context, quality float64) (*capture.Frame, error) {
	frame, err := p.source.CaptureFrame(ctx, quality)
	if err == nil {
		p.bar.Add(1)
	}
	return frame, err
}

func runEnroll(cmd *cobra.Command, args []string) error {
	studentID := args[0]
	imagePaths := args[1:]
	jsonOutput := mustGetBool(cmd, "json")
	ctx := context.Background()

	if recognition.NormalizeStudentID(studentID) == "" {
		return fmt.Errorf("%s: %w", constants.StatusEnterStudentID, recognition.ErrValidation)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	frameCount := intOrConfig(cmd, "frames", cfg.Enrollment.Frames)
	if frameCount > constants.MaxEnrollmentFrames {
		return fmt.Errorf("at most %d frames can be enrolled at once", constants.MaxEnrollmentFrames)
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ui := &workflow.UIState{}

	var resp *recognition.EnrollResponse
	if len(imagePaths) > 0 {
		bar := newProgressBar(len(imagePaths), "Loading images", "images")
		frames := make([]*capture.Frame, 0, len(imagePaths))
		for _, path := range imagePaths {
			frame, err := readImageFile(path)
			if err != nil {
				return err
			}
			frames = append(frames, frame)
			bar.Add(1)
		}
		fmt.Println()

		resp, err = workflow.NewEnrollmentWorkflow(nil, client, nil, ui, cfg.Camera.Quality, len(frames)).Submit(ctx, studentID, frames)
		if err != nil {
			return fmt.Errorf("%s: %w", ui.Status(), err)
		}
	} else {
		camera, err := capture.Start(ctx, cameraOpener(cmd, cfg), cameraOptions(cfg))
		if err != nil {
			return err
		}
		defer camera.Stop()

		fmt.Printf("Look at the camera, taking %d photos...\n", frameCount)
		source := progressSource{source: camera, bar: newProgressBar(frameCount, "Capturing", "frames")}
		resp, err = workflow.NewEnrollmentWorkflow(source, client, nil, ui, cfg.Camera.Quality, frameCount).Run(ctx, studentID)
		fmt.Println()
		if err != nil {
			return fmt.Errorf("%s: %w", ui.Status(), err)
		}
	}

	if jsonOutput {
		return outputJSON(resp)
	}
	fmt.Println(ui.Status())
	if resp.Images > 0 {
		fmt.Printf("  %d image(s) stored\n", resp.Images)
	}
	return nil
}
