// Package config provides configuration helpers for go-charuco commands.
package config

import "os"

// Defaults shared by the calibration commands.
const (
	DefaultOutputFile = "camera_params.yaml"
	DefaultCameraID   = 0
	DefaultWaitMs     = 20
)

// LogLevel returns the log level from CHARUCO_LOG env var.
// Falls back to "info" if not set.
func LogLevel() string {
	if lvl := os.Getenv("CHARUCO_LOG"); lvl != "" {
		return lvl
	}
	return "info"
}

// OutputFile returns the output path from CHARUCO_OUT env var.
// Falls back to the provided default if not set.
func OutputFile(def string) string {
	if out := os.Getenv("CHARUCO_OUT"); out != "" {
		return out
	}
	return def
}
