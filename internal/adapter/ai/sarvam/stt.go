package sarvam

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/internal/domain"
)

// sttResponse covers both schema versions of the transcription endpoint:
// older responses use "text", newer ones "transcript".
type sttResponse struct {
	Transcript string `json:"transcript"`
	Text       string `json:"text"`
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Transcribe uploads WAV audio and returns the transcript, which may be
// empty when no speech was detected.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", domain.NewStageError(domain.StageSTT, domain.ErrEmptyAudio)
	}
	if filename == "" {
		filename = domain.DefaultAudioFilename
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", domain.AudioMIMEType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", domain.NewStageError(domain.StageSTT, fmt.Errorf("build request: %w", err))
	}
	if _, err := part.Write(audio); err != nil {
		return "", domain.NewStageError(domain.StageSTT, fmt.Errorf("build request: %w", err))
	}
	if err := mw.Close(); err != nil {
		return "", domain.NewStageError(domain.StageSTT, fmt.Errorf("build request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/speech-to-text"), body)
	if err != nil {
		return "", domain.NewStageError(domain.StageSTT, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	raw, err := c.do(ctx, req)
	if err != nil {
		return "", domain.NewStageError(domain.StageSTT, err)
	}

	var out sttResponse
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return "", domain.NewStageError(domain.StageSTT, fmt.Errorf("malformed response: %w", err))
	}

	transcript := out.Transcript
	if transcript == "" {
		transcript = out.Text
	}

	c.log.Debug("Transcription received",
		zap.Int("audio_bytes", len(audio)),
		zap.Int("transcript_chars", len([]rune(transcript))),
		zap.Duration("latency", time.Since(start)),
	)

	return transcript, nil
}
