package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
	"github.com/kozaktomas/attendance-kiosk/internal/workflow"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize [image]",
	Short: "Recognize faces in an image or a camera snapshot",
	Long: `Submit one image to the recognition service and print who was found.
Recognized students are recorded as present by the service.

Without an image argument a single frame is taken from the camera.

Examples:
  attendance-kiosk recognize photo.jpg
  attendance-kiosk recognize --json
  attendance-kiosk recognize --image still.png   # replay a still as the camera`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
	addCameraFlags(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ui := &workflow.UIState{}
	var resp *recognition.RecognizeResponse
	if len(args) == 1 {
		frame, err := readImageFile(args[0])
		if err != nil {
			return err
		}
		resp, err = workflow.NewRecognitionWorkflow(nil, client, nil, ui, cfg.Camera.Quality).Submit(ctx, frame)
		if err != nil {
			return fmt.Errorf("%s: %w", ui.Status(), err)
		}
	} else {
		camera, err := capture.Start(ctx, cameraOpener(cmd, cfg), cameraOptions(cfg))
		if err != nil {
			return err
		}
		defer camera.Stop()

		resp, err = workflow.NewRecognitionWorkflow(camera, client, nil, ui, cfg.Camera.Quality).Run(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", ui.Status(), err)
		}
	}

	if jsonOutput {
		return outputJSON(resp)
	}
	printRecognition(resp)
	return nil
}

func printRecognition(resp *recognition.RecognizeResponse) {
	if len(resp.Results) == 0 {
		fmt.Println("No faces found.")
		return
	}

	fmt.Printf("Found %d face(s):\n", len(resp.Results))
	for i, result := range resp.Results {
		name := result.StudentID
		if !result.Recognized() {
			name = "unknown"
		}
		fmt.Printf("  %d. %-20s", i+1, name)
		if result.Similarity != nil {
			fmt.Printf(" similarity %.3f", *result.Similarity)
		}
		if result.Distance != nil {
			fmt.Printf(" distance %.3f", *result.Distance)
		}
		fmt.Println()
	}

	if len(resp.Recorded) > 0 {
		fmt.Printf("\nRecorded attendance for %d student(s)\n", len(resp.Recorded))
	}
}
