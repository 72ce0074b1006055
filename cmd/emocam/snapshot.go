package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/teslashibe/emocam/pkg/capture"
	"github.com/teslashibe/emocam/pkg/stream"
	"github.com/teslashibe/emocam/pkg/web"
)

var snapshotOpts struct {
	Output string
	Warmup int
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write one annotated frame to a JPEG file and print its detections",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOpts.Output, "output", "o", "snapshot.jpg", "Output JPEG path")
	snapshotCmd.Flags().IntVarP(&snapshotOpts.Warmup, "warmup", "w", 5, "Frames to discard while the camera adjusts exposure")
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	det, err := newDetector(cfg)
	if err != nil {
		return err
	}
	defer det.Close()

	streamer := stream.NewStreamer(capture.Webcam(captureConfig(cfg)), det,
		stream.WithQuality(cfg.JPEGQuality),
	)

	bar := progressbar.NewOptions(snapshotOpts.Warmup+1,
		progressbar.OptionSetDescription("Capturing"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
	)

	var (
		last stream.Frame
		n    int
	)
	for f, err := range streamer.Frames(cmd.Context()) {
		if err != nil {
			return err
		}
		last = f
		n++
		bar.Add(1)
		if n > snapshotOpts.Warmup {
			break
		}
	}
	bar.Finish()
	fmt.Fprintln(cmd.ErrOrStderr())
	if n == 0 {
		return errors.New("camera produced no frames")
	}

	if err := os.WriteFile(snapshotOpts.Output, last.JPEG(), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	out, err := json.MarshalIndent(web.NewDetectionMessage(last), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d faces)\n", snapshotOpts.Output, len(last.Faces))
	return nil
}
