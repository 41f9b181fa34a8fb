package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// RGB is an 8-bit color triple used for the menu target colors.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

type Config struct {
	Port     int
	Password string

	DataDirectory     string // uploaded sources, reference images and outputs
	DatabasePath      string
	LogDirectory      string
	FFmpegPath        string
	FFprobePath       string
	ProcessingWorkers int

	// Frame sampling
	SampleFPS        float64 // scanned frames per second of video
	ProgressInterval int     // broadcast progress every N scanned frames

	// Detection policy knobs: the menu triad colors and the
	// thresholds around them.
	MenuBackgroundColor RGB
	MenuAccentColor     RGB
	BackgroundTolH      float64
	BackgroundTolS      float64
	BackgroundTolV      float64
	AccentTolH          float64
	AccentTolS          float64
	AccentTolV          float64
	TextSatMax          float64
	TextValMin          float64
	MinAreaRatio        float64 // calibration: best component must exceed this fraction of the frame
	IoUThreshold        float64 // spatial lock
	AccentMinRatio      float64 // triad check: accent pixel fraction in ROI
	TextMinRatio        float64 // triad check: text pixel fraction in ROI

	// Timeline policy
	ClusterTolerance float64 // max gap in seconds inside one detection range
	MinSegment       float64 // keep ranges shorter than this are dropped
}

func Load() *Config {
	// Optional .env next to the binary; a missing file is fine.
	_ = godotenv.Load()

	return &Config{
		Port:     getEnvAsInt("PORT", 8080),
		Password: getEnv("PASSWORD", "cleancut"),

		DataDirectory:     getEnv("DATA_DIR", filepath.Join(".", "data")),
		DatabasePath:      getEnv("DB_PATH", filepath.Join(".", "data", "jobs.db")),
		LogDirectory:      getEnv("LOG_DIR", filepath.Join(".", "logs")),
		FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:       getEnv("FFPROBE_PATH", "ffprobe"),
		ProcessingWorkers: getEnvAsInt("PROCESSING_WORKERS", 2),

		SampleFPS:        getEnvAsFloat("SAMPLE_FPS", 5.0),
		ProgressInterval: getEnvAsInt("PROGRESS_INTERVAL", 25),

		MenuBackgroundColor: getEnvAsColor("MENU_BACKGROUND_COLOR", RGB{R: 24, G: 34, B: 48}),
		MenuAccentColor:     getEnvAsColor("MENU_ACCENT_COLOR", RGB{R: 70, G: 104, B: 146}),
		BackgroundTolH:      getEnvAsFloat("BACKGROUND_TOL_H", 15),
		BackgroundTolS:      getEnvAsFloat("BACKGROUND_TOL_S", 80),
		BackgroundTolV:      getEnvAsFloat("BACKGROUND_TOL_V", 80),
		AccentTolH:          getEnvAsFloat("ACCENT_TOL_H", 10),
		AccentTolS:          getEnvAsFloat("ACCENT_TOL_S", 60),
		AccentTolV:          getEnvAsFloat("ACCENT_TOL_V", 60),
		TextSatMax:          getEnvAsFloat("TEXT_SAT_MAX", 60),
		TextValMin:          getEnvAsFloat("TEXT_VAL_MIN", 200),
		MinAreaRatio:        getEnvAsFloat("MIN_AREA_RATIO", 0.01),
		IoUThreshold:        getEnvAsFloat("IOU_THRESHOLD", 0.3),
		AccentMinRatio:      getEnvAsFloat("ACCENT_MIN_RATIO", 0.01),
		TextMinRatio:        getEnvAsFloat("TEXT_MIN_RATIO", 0.01),

		ClusterTolerance: getEnvAsFloat("CLUSTER_TOLERANCE", 0.5),
		MinSegment:       getEnvAsFloat("MIN_SEGMENT", 0.1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsColor(key string, defaultValue RGB) RGB {
	if value := os.Getenv(key); value != "" {
		if c, err := ParseHexColor(value); err == nil {
			return c
		}
	}
	return defaultValue
}

// ParseHexColor parses "#RRGGBB" or "RRGGBB" into an RGB triple.
func ParseHexColor(s string) (RGB, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
