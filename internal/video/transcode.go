package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"cleancut/internal/logger"
	"cleancut/internal/timeline"
)

// Transcoder maps keep ranges to trim-and-concatenate operations on the
// source media, producing one output file with audio/video sync preserved
// across the concatenation boundaries.
type Transcoder struct {
	ffmpegPath string
	logger     *logger.Logger
}

func NewTranscoder(ffmpegPath string, logger *logger.Logger) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transcoder{
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

// Export extracts each keep range from input and concatenates the clips
// into output. A single range is trimmed straight to the output file.
func (t *Transcoder) Export(ctx context.Context, input string, ranges []timeline.KeepRange, output string) error {
	if len(ranges) == 0 {
		return fmt.Errorf("no ranges to export")
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if len(ranges) == 1 {
		return t.extractClip(ctx, input, ranges[0], output)
	}

	tmpDir, err := os.MkdirTemp("", "cleancut-concat-")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	parts := make([]string, 0, len(ranges))
	for i, r := range ranges {
		part := filepath.Join(tmpDir, fmt.Sprintf("part_%03d%s", i, filepath.Ext(output)))
		if err := t.extractClip(ctx, input, r, part); err != nil {
			return err
		}
		parts = append(parts, part)
	}

	return t.concat(ctx, parts, output)
}

// extractClip trims one range with stream copy, re-encoding nothing.
func (t *Transcoder) extractClip(ctx context.Context, input string, r timeline.KeepRange, output string) error {
	duration := r.End - r.Start
	if duration <= 0 {
		return fmt.Errorf("invalid clip range [%f, %f]", r.Start, r.End)
	}

	t.logger.Info("Extracting clip [%.3f, %.3f] from %s", r.Start, r.End, input)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", r.Start),
		"-i", input,
		"-t", fmt.Sprintf("%.3f", duration),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		output,
	}

	return t.run(ctx, args)
}

// concat merges the clips with the concat demuxer and stream copy.
func (t *Transcoder) concat(ctx context.Context, inputs []string, output string) error {
	listFile, err := t.createConcatFile(inputs)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(listFile)

	t.logger.Info("Concatenating %d clips into %s", len(inputs), output)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		output,
	}

	return t.run(ctx, args)
}

// createConcatFile writes the temporary file list for the concat demuxer.
func (t *Transcoder) createConcatFile(inputs []string) (string, error) {
	tmpFile, err := os.CreateTemp("", "cleancut-list-*.txt")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	for _, input := range inputs {
		absPath, err := filepath.Abs(input)
		if err != nil {
			return "", err
		}
		if _, err := fmt.Fprintf(tmpFile, "file '%s'\n", absPath); err != nil {
			return "", err
		}
	}

	return tmpFile.Name(), nil
}

func (t *Transcoder) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, output)
	}
	return nil
}
