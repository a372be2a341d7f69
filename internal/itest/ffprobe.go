//go:build integration

package itest

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

func probe(mediaPath string) (probeResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type,codec_name",
		"-of", "json",
		mediaPath,
	)
	b, err := cmd.Output()
	if err != nil {
		return probeResult{}, fmt.Errorf("ffprobe: %w", err)
	}
	var res probeResult
	if err := json.Unmarshal(b, &res); err != nil {
		return probeResult{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return res, nil
}

func probeDurationSeconds(mediaPath string) (float64, error) {
	res, err := probe(mediaPath)
	if err != nil {
		return 0, err
	}
	sec, err := strconv.ParseFloat(res.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", res.Format.Duration, err)
	}
	return sec, nil
}

// codecs maps codec_type to codec_name for each stream.
func codecs(mediaPath string) (map[string]string, error) {
	res, err := probe(mediaPath)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(res.Streams))
	for _, s := range res.Streams {
		out[s.CodecType] = s.CodecName
	}
	return out, nil
}
