package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/internal/domain"
	"github.com/seu-repo/healthvoice/internal/service/pipeline"
)

// Runner executes one interaction.
type Runner interface {
	RunVoice(ctx context.Context, in pipeline.VoiceInput, observe pipeline.Observer) *domain.Interaction
	RunText(ctx context.Context, in pipeline.TextInput, observe pipeline.Observer) *domain.Interaction
}

type InteractionHandler struct {
	runner        Runner
	streamTimeout time.Duration
	log           *zap.Logger
}

// NewInteractionHandler builds the handler. streamTimeout bounds a streamed
// run, which outlives the request handler.
func NewInteractionHandler(runner Runner, streamTimeout time.Duration, log *zap.Logger) *InteractionHandler {
	if streamTimeout <= 0 {
		streamTimeout = 2 * time.Minute
	}
	return &InteractionHandler{
		runner:        runner,
		streamTimeout: streamTimeout,
		log:           log,
	}
}

type TextRequest struct {
	Message  string `json:"message" form:"message"`
	Language string `json:"language" form:"language"`
}

// Voice handles a recorded clip uploaded as multipart field "audio" (or
// "file") with an optional "language".
func (h *InteractionHandler) Voice(c *fiber.Ctx) error {
	lang, err := lookupLanguage(c.FormValue("language"))
	if err != nil {
		return err
	}

	header, err := c.FormFile("audio")
	if err != nil {
		header, err = c.FormFile("file")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing audio file")
	}

	audio, err := readUpload(header)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable audio file")
	}

	in := pipeline.VoiceInput{
		Audio:    audio,
		Filename: domain.DefaultAudioFilename,
		Language: lang,
	}

	if wantsStream(c) {
		return h.stream(c, func(ctx context.Context, observe pipeline.Observer) {
			h.runner.RunVoice(ctx, in, observe)
		})
	}

	return c.JSON(h.runner.RunVoice(c.UserContext(), in, nil))
}

// Text handles a typed message sent as JSON or form data.
func (h *InteractionHandler) Text(c *fiber.Ctx) error {
	var req TextRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	lang, err := lookupLanguage(req.Language)
	if err != nil {
		return err
	}

	in := pipeline.TextInput{
		// the request buffer is reused once the handler returns
		Message:  strings.Clone(req.Message),
		Language: lang,
	}

	if wantsStream(c) {
		return h.stream(c, func(ctx context.Context, observe pipeline.Observer) {
			h.runner.RunText(ctx, in, observe)
		})
	}

	return c.JSON(h.runner.RunText(c.UserContext(), in, nil))
}

// stream runs the interaction inside the response body writer and sends each
// progress event as a server-sent event.
func (h *InteractionHandler) stream(c *fiber.Ctx, run func(context.Context, pipeline.Observer)) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	timeout := h.streamTimeout
	log := h.log

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		broken := false
		run(ctx, func(ev domain.Event) {
			if broken {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				// client went away; the run still finishes and is recorded
				broken = true
				log.Debug("Event stream closed by client", zap.Error(err))
			}
		})
	})

	return nil
}

func writeEvent(w *bufio.Writer, ev domain.Event) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return w.Flush()
}

// Languages lists the selectable output languages.
func Languages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"languages": domain.Languages(),
		"default":   domain.DefaultLanguage(),
	})
}

func lookupLanguage(selector string) (domain.Language, error) {
	lang, err := domain.LookupLanguage(selector)
	if err != nil {
		return domain.Language{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return lang, nil
}

func wantsStream(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), "text/event-stream")
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
