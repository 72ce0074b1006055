package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teslashibe/emocam/internal/config"
	"github.com/teslashibe/emocam/internal/log"
	"github.com/teslashibe/emocam/pkg/capture"
	"github.com/teslashibe/emocam/pkg/emotion"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cfg starts from the environment; flags override it.
var cfg = config.Load()

var rootCmd = &cobra.Command{
	Use:           "emocam",
	Short:         "Stream a webcam with live facial emotion labels",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Init(cfg.LogLevel)
		return cfg.Validate()
	},
	RunE: runServe,
}

func init() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	f := rootCmd.PersistentFlags()
	f.IntVar(&cfg.Device, "device", cfg.Device, "Camera index")
	f.IntVar(&cfg.Width, "width", cfg.Width, "Capture width (0 keeps the driver default)")
	f.IntVar(&cfg.Height, "height", cfg.Height, "Capture height (0 keeps the driver default)")
	f.IntVar(&cfg.Framerate, "fps", cfg.Framerate, "Capture framerate (0 keeps the driver default)")
	f.IntVar(&cfg.JPEGQuality, "quality", cfg.JPEGQuality, "JPEG quality 1-100 (0 keeps the encoder default)")
	f.StringVar(&cfg.Locator, "locator", cfg.Locator, "Face locator: yunet or cascade")
	f.StringVar(&cfg.FaceModel, "face-model", cfg.FaceModel, "YuNet ONNX model path")
	f.StringVar(&cfg.Cascade, "cascade", cfg.Cascade, "Haar cascade XML path")
	f.StringVar(&cfg.EmotionModel, "emotion-model", cfg.EmotionModel, "Emotion classifier ONNX model path")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	addServeFlags(rootCmd)
	rootCmd.AddCommand(serveCmd, snapshotCmd)
}

// captureConfig maps process configuration to camera settings.
func captureConfig(c config.Config) capture.Config {
	cc := capture.DefaultConfig()
	cc.DeviceID = c.Device
	cc.Width = c.Width
	cc.Height = c.Height
	cc.Framerate = c.Framerate
	cc.Quality = c.JPEGQuality
	return cc
}

// newDetector loads the configured face locator and emotion classifier.
func newDetector(c config.Config) (emotion.Detector, error) {
	var loc emotion.Locator
	switch c.Locator {
	case config.LocatorCascade:
		cc := emotion.DefaultCascadeConfig()
		cc.Path = c.Cascade
		l, err := emotion.NewCascade(cc)
		if err != nil {
			return nil, fmt.Errorf("face locator: %w", err)
		}
		loc = l
	default:
		yc := emotion.DefaultYuNetConfig()
		yc.ModelPath = c.FaceModel
		l, err := emotion.NewYuNet(yc)
		if err != nil {
			return nil, fmt.Errorf("face locator: %w", err)
		}
		loc = l
	}

	nc := emotion.DefaultNetConfig()
	nc.ModelPath = c.EmotionModel
	cls, err := emotion.NewNetClassifier(nc)
	if err != nil {
		loc.Close()
		return nil, fmt.Errorf("emotion classifier: %w", err)
	}

	return emotion.New(loc, cls, emotion.DefaultConfig()), nil
}
