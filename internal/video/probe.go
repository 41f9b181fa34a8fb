package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// Prober reads container metadata through ffprobe.
type Prober struct {
	ffprobePath string
}

func NewProber(ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{ffprobePath: ffprobePath}
}

// probeResult matches the ffprobe JSON output structure.
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Info holds the probed container metadata the pipeline needs.
type Info struct {
	Duration float64
	Width    int
	Height   int
	HasAudio bool
}

// Probe extracts duration and stream dimensions from a media file.
func (p *Prober) Probe(ctx context.Context, path string) (*Info, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{}
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = dur
	}
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			info.Width = stream.Width
			info.Height = stream.Height
		case "audio":
			info.HasAudio = true
		}
	}

	return info, nil
}

// Duration probes only the container duration in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	info, err := p.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	if info.Duration <= 0 {
		return 0, fmt.Errorf("no duration in container metadata for %s", path)
	}
	return info.Duration, nil
}
