package convert

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var (
	ffmpegDurationRe = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	ffmpegTimeRe     = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
)

// runFFmpeg executes ffmpeg, parsing its stderr stream for the
// Duration/time pairs it prints so the job's advisory progress tracks the
// real transcode position. The returned error carries a short diagnostic
// from stderr, never the command line or file paths.
func runFFmpeg(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", append([]string{"-hide_banner"}, args...)...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("create stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	onProgress := progressFrom(ctx)
	var stderrBuf bytes.Buffer
	var totalDuration float64

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		stderrBuf.WriteString(line + "\n")

		if matches := ffmpegDurationRe.FindStringSubmatch(line); matches != nil {
			totalDuration = ffmpegClock(matches)
		}
		if matches := ffmpegTimeRe.FindStringSubmatch(line); matches != nil && totalDuration > 0 {
			progress := int(ffmpegClock(matches) / totalDuration * 100)
			if progress > 100 {
				progress = 100
			}
			onProgress(progress)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg: %v: %s", err, lastStderrLine(stderrBuf.String()))
	}
	return nil
}

func ffmpegClock(matches []string) float64 {
	hours, _ := strconv.ParseFloat(matches[1], 64)
	minutes, _ := strconv.ParseFloat(matches[2], 64)
	seconds, _ := strconv.ParseFloat(matches[3], 64)
	centis, _ := strconv.ParseFloat(matches[4], 64)
	return hours*3600 + minutes*60 + seconds + centis/100
}

// lastStderrLine extracts the final non-empty stderr line, which is where
// ffmpeg puts its actual complaint.
func lastStderrLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "no diagnostic output"
}
