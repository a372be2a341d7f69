package highlights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/itzleon156-collab/So-clip/internal/domain/timefmt"
	"github.com/itzleon156-collab/So-clip/internal/log"
	"github.com/itzleon156-collab/So-clip/internal/metrics"
	"github.com/itzleon156-collab/So-clip/internal/ports"
	"github.com/itzleon156-collab/So-clip/internal/types"
)

const (
	temperature   = 0.3
	maxTokens     = 1000
	maxHighlights = 5
)

// arrayRE is deliberately greedy: from the first '[' to the last ']'.
var arrayRE = regexp.MustCompile(`(?s)\[.*\]`)

var errNoArray = errors.New("no JSON array in reply")

// Extractor asks a chat model to pick highlight windows from a transcript.
type Extractor struct {
	llm ports.ChatCompleter
}

func New(llm ports.ChatCompleter) *Extractor {
	return &Extractor{llm: llm}
}

// Extract returns at most five highlights sorted by descending score. Every
// failure degrades to an empty, non-nil slice.
func (e *Extractor) Extract(ctx context.Context, tr types.Transcript) []types.Highlight {
	if len(tr.Segments) == 0 || e.llm == nil {
		metrics.HighlightExtractions.WithLabelValues("empty").Inc()
		return []types.Highlight{}
	}
	logger := log.WithContext(ctx, log.WithComponent("highlights"))

	reply, err := e.llm.Complete(ctx, BuildPrompt(tr.Segments), temperature, maxTokens)
	if err != nil {
		metrics.HighlightExtractions.WithLabelValues("api_error").Inc()
		logger.Warn().Err(err).Msg("highlight completion failed")
		return []types.Highlight{}
	}

	out, err := ParseReply(reply)
	if err != nil {
		result := "parse_error"
		if errors.Is(err, errNoArray) {
			result = "no_json"
		}
		metrics.HighlightExtractions.WithLabelValues(result).Inc()
		logger.Warn().Err(err).Str("reply", truncate(reply, 200)).Msg("could not parse highlights")
		return []types.Highlight{}
	}

	metrics.HighlightExtractions.WithLabelValues("ok").Inc()
	logger.Debug().Int("count", len(out)).Msg("highlights extracted")
	return out
}

// RenderTranscript formats segments as "[M:SS - M:SS]: text" lines.
func RenderTranscript(segs []types.Segment) string {
	lines := make([]string, 0, len(segs))
	for _, s := range segs {
		lines = append(lines, fmt.Sprintf("[%s - %s]: %s", timefmt.Format(s.Start), timefmt.Format(s.End), s.Text))
	}
	return strings.Join(lines, "\n")
}

func BuildPrompt(segs []types.Segment) string {
	return "You are an expert short-form video editor. " +
		"Analyze this timestamped transcript and find the 3 to 5 most engaging moments that would work as standalone clips.\n\n" +
		"TRANSCRIPT:\n" + RenderTranscript(segs) + "\n\n" +
		"Respond ONLY with a JSON array of objects with these fields:\n" +
		"- \"start\": start time in seconds (integer)\n" +
		"- \"end\": end time in seconds (integer)\n" +
		"- \"title\": a short catchy title\n" +
		"- \"reason\": why this moment is engaging\n" +
		"- \"score\": virality score from 1 to 100\n\n" +
		"Rules: each clip must be between 15 and 60 seconds long, return at most 5 items, " +
		"and output no text before or after the JSON array."
}

// ParseReply extracts the first bracketed array from a model reply, decodes it
// and orders it by score, highest first.
func ParseReply(reply string) ([]types.Highlight, error) {
	raw := arrayRE.FindString(reply)
	if raw == "" {
		return nil, errNoArray
	}

	var items []struct {
		Start  float64 `json:"start"`
		End    float64 `json:"end"`
		Title  string  `json:"title"`
		Reason string  `json:"reason"`
		Score  float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode highlights: %w", err)
	}

	out := make([]types.Highlight, 0, len(items))
	for _, it := range items {
		out = append(out, types.Highlight{
			Start:  int(it.Start),
			End:    int(it.End),
			Title:  it.Title,
			Reason: it.Reason,
			Score:  int(it.Score),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxHighlights {
		out = out[:maxHighlights]
	}
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
