package sarvam

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/internal/domain"
)

type ttsRequest struct {
	Inputs              []string `json:"inputs"`
	TargetLanguageCode  string   `json:"target_language_code"`
	Speaker             string   `json:"speaker"`
	Pitch               float64  `json:"pitch"`
	Pace                float64  `json:"pace"`
	Loudness            float64  `json:"loudness"`
	SpeechSampleRate    int      `json:"speech_sample_rate"`
	EnablePreprocessing bool     `json:"enable_preprocessing"`
	Model               string   `json:"model"`
}

type ttsResponse struct {
	Audios []string `json:"audios"`
}

// Synthesize cuts text to the service's input ceiling and returns the
// spoken audio for the given locale code.
func (c *Client) Synthesize(ctx context.Context, text, locale string) ([]byte, error) {
	limit := c.voice.MaxChars
	if limit <= 0 {
		limit = domain.MaxSpeechChars
	}
	speech, truncated := domain.SpeechText(text, limit)

	payload, err := sonic.Marshal(ttsRequest{
		Inputs:              []string{speech},
		TargetLanguageCode:  locale,
		Speaker:             c.voice.Speaker,
		Pitch:               c.voice.Pitch,
		Pace:                c.voice.Pace,
		Loudness:            c.voice.Loudness,
		SpeechSampleRate:    c.voice.SampleRate,
		EnablePreprocessing: c.voice.EnablePreprocessing,
		Model:               c.voice.Model,
	})
	if err != nil {
		return nil, domain.NewStageError(domain.StageTTS, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/text-to-speech"), bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewStageError(domain.StageTTS, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	raw, err := c.do(ctx, req)
	if err != nil {
		return nil, domain.NewStageError(domain.StageTTS, err)
	}

	audio, err := decodeAudio(raw)
	if err != nil {
		return nil, domain.NewStageError(domain.StageTTS, err)
	}

	c.log.Debug("Speech synthesized",
		zap.String("locale", locale),
		zap.Bool("truncated", truncated),
		zap.Int("audio_bytes", len(audio)),
		zap.Duration("latency", time.Since(start)),
	)

	return audio, nil
}

// decodeAudio handles the two response shapes the service is documented to
// return: a JSON envelope {"audios": ["<base64>", ...]} whose first entry is
// the audio, or the audio bytes themselves.
func decodeAudio(body []byte) ([]byte, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, domain.ErrEmptyResponse
	}
	if trimmed[0] != '{' {
		return body, nil
	}

	var env ttsResponse
	if err := sonic.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if len(env.Audios) == 0 {
		return body, nil
	}

	audio, err := base64.StdEncoding.DecodeString(env.Audios[0])
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, domain.ErrEmptyResponse
	}
	return audio, nil
}
