// Package openai adapts the hosted transcription and chat-completion API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"github.com/itzleon156-collab/So-clip/internal/config"
	"github.com/itzleon156-collab/So-clip/internal/metrics"
	"github.com/itzleon156-collab/So-clip/internal/types"
)

const (
	requestTimeout = 90 * time.Second
	clientTimeout  = 5 * time.Minute
)

type Options struct {
	APIKey          string
	BaseURL         string
	ChatModel       string
	TranscribeModel string
}

type Adapter struct {
	key             string
	chatModel       string
	transcribeModel string
	client          *sdk.Client
}

func New(opts Options) *Adapter {
	if opts.ChatModel == "" {
		opts.ChatModel = config.DefaultChatModel
	}
	if opts.TranscribeModel == "" {
		opts.TranscribeModel = config.DefaultTranscribeModel
	}
	cfg := sdk.DefaultConfig(opts.APIKey)
	cfg.BaseURL = config.NormalizeBaseURL(opts.BaseURL)
	cfg.HTTPClient = &http.Client{Timeout: clientTimeout}
	return &Adapter{
		key:             opts.APIKey,
		chatModel:       opts.ChatModel,
		transcribeModel: opts.TranscribeModel,
		client:          sdk.NewClientWithConfig(cfg),
	}
}

// Transcribe uploads the audio file and returns the text with segment timings.
func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (types.Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	start := time.Now()
	defer metrics.ObserveProcess("openai", "transcribe", start)

	resp, err := a.client.CreateTranscription(ctx, sdk.AudioRequest{
		Model:                  a.transcribeModel,
		Reader:                 f,
		FilePath:               filepath.Base(audioPath),
		Format:                 sdk.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []sdk.TranscriptionTimestampGranularity{sdk.TranscriptionTimestampGranularitySegment},
	})
	if err != nil {
		return types.Transcript{}, fmt.Errorf("transcription failed: %s", a.describe(err))
	}

	tr := types.Transcript{
		FullText: strings.TrimSpace(resp.Text),
		Segments: make([]types.Segment, 0, len(resp.Segments)),
	}
	for _, s := range resp.Segments {
		tr.Segments = append(tr.Segments, types.Segment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return tr, nil
}

// Complete sends prompt as a single user message and returns the first choice.
func (a *Adapter) Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	start := time.Now()
	defer metrics.ObserveProcess("openai", "chat", start)

	resp, err := a.client.CreateChatCompletion(reqCtx, sdk.ChatCompletionRequest{
		Model: a.chatModel,
		Messages: []sdk.ChatCompletionMessage{
			{Role: sdk.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openai timeout after %s (model=%s)", requestTimeout, a.chatModel)
		}
		return "", fmt.Errorf("chat completion failed: %s", a.describe(err))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *Adapter) describe(err error) string {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, truncate(redactSecrets(apiErr.Message, a.key), 400))
	}
	return truncate(redactSecrets(err.Error(), a.key), 400)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
	skKeyRE       = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = skKeyRE.ReplaceAllString(out, "[REDACTED]")
	return out
}
