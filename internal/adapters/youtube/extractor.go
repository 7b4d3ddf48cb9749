package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

const extractTimeout = 30 * time.Second

// ExtractedInfo is the metadata the extraction tool reports for a single
// video, including the direct audio URL when one could be resolved.
type ExtractedInfo struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Artist     string      `json:"artist"`
	Artists    []string    `json:"artists"`
	Uploader   string      `json:"uploader"`
	Channel    string      `json:"channel"`
	Album      string      `json:"album"`
	Duration   float64     `json:"duration"`
	URL        string      `json:"url"`
	Thumbnails []thumbnail `json:"thumbnails"`
}

// Extractor resolves a video page URL to stream metadata.
type Extractor interface {
	Extract(ctx context.Context, videoURL string) (*ExtractedInfo, error)
}

// YTDLP runs the yt-dlp binary in metadata-only mode and parses its JSON
// output. One invocation per extraction; no state is shared between calls.
type YTDLP struct {
	path string
}

// NewYTDLP creates an extractor using the yt-dlp binary at the given path.
func NewYTDLP(path string) *YTDLP {
	return &YTDLP{path: path}
}

func (y *YTDLP) Extract(ctx context.Context, videoURL string) (*ExtractedInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.path,
		"-f", "bestaudio[ext=m4a]/bestaudio/best",
		"--no-playlist",
		"--retries", "1",
		"--fragment-retries", "1",
		"--no-check-certificates",
		"--skip-download",
		"-j",
		videoURL,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("yt-dlp timed out after %s", extractTimeout)
		}
		return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, stderr.String())
	}

	var info ExtractedInfo
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	return &info, nil
}
