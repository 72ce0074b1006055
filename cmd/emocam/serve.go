package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/teslashibe/emocam/internal/log"
	"github.com/teslashibe/emocam/pkg/capture"
	"github.com/teslashibe/emocam/pkg/stream"
	"github.com/teslashibe/emocam/pkg/web"
	"gocv.io/x/gocv"
)

const shutdownTimeout = 5 * time.Second

var debug bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the annotated camera stream over HTTP (default)",
	RunE:  runServe,
}

func init() {
	addServeFlags(serveCmd)
}

// addServeFlags registers the server flags on cmd. The root command gets
// them too so that serving is the default action.
func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	cmd.Flags().DurationVar(&cfg.SendTimeout, "send-timeout", cfg.SendTimeout, "Drop viewers that fall this far behind")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log every HTTP request")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := log.Component("serve")

	det, err := newDetector(cfg)
	if err != nil {
		return err
	}
	defer det.Close()

	camera := capture.NewManager(captureConfig(cfg))
	streamer := stream.NewStreamer(camera.Opener(), det,
		stream.WithLogger(log.Component("stream")),
		stream.WithEncoder(func(img gocv.Mat) ([]byte, error) {
			return stream.EncodeJPEG(img, camera.GetConfig().Quality)
		}),
	)
	hub := stream.NewHub(streamer, stream.HubConfig{SendTimeout: cfg.SendTimeout})

	camera.OnConfigChange = func(capture.Config) error {
		hub.Reload()
		return nil
	}

	srv := web.NewServer(web.Config{
		Addr:    cfg.Addr,
		Debug:   debug,
		Version: version,
	}, hub, camera)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()
	logger.Info("emocam started",
		"version", version,
		"addr", cfg.Addr,
		"device", cfg.Device,
		"locator", cfg.Locator,
	)

	select {
	case err := <-errc:
		hub.Close()
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	// Ending the stream first lets open /video_feed responses finish.
	hub.Close()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("shutdown error", "error", err)
	}

	logger.Info("goodbye")
	return nil
}
