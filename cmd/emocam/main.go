// emocam - live webcam stream with facial emotion labels
//
// Serves the camera as MJPEG with a box around each face and the dominant
// emotion written above it.
//
// Usage:
//
//	emocam                       # serve on 0.0.0.0:80
//	emocam serve --addr :8080 --device 1
//	emocam snapshot -o frame.jpg # one annotated frame
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
