package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/internal/domain"
	"github.com/seu-repo/healthvoice/internal/observability/telemetry"
	"github.com/seu-repo/healthvoice/internal/ports"
)

// User-facing notice texts.
const (
	MsgNoAudio      = "No audio received. Please record a message first."
	MsgNoSpeech     = "No speech detected. Please try again."
	MsgEmptyMessage = "Please enter a message first."
	MsgAudioFailed  = "Could not generate audio: "
)

const defaultPublishTimeout = 2 * time.Second

// Observer receives progress events while an interaction runs. It is called
// on the request goroutine, in order.
type Observer func(domain.Event)

type VoiceInput struct {
	Audio    []byte
	Filename string
	Language domain.Language
}

type TextInput struct {
	Message  string
	Language domain.Language
}

// Controller runs the voice and text flows. Stages are strictly sequential
// and no stage error escapes: each one ends up as a Notice on the result.
type Controller struct {
	transcriber    ports.Transcriber
	responder      ports.Responder
	synthesizer    ports.Synthesizer
	publisher      ports.EventPublisher
	maxSpeechChars int
	publishTimeout time.Duration
	tracer         trace.Tracer
	logger         *zap.Logger
}

type Options struct {
	MaxSpeechChars int
	PublishTimeout time.Duration
}

func NewController(
	transcriber ports.Transcriber,
	responder ports.Responder,
	synthesizer ports.Synthesizer,
	publisher ports.EventPublisher,
	opts Options,
	logger *zap.Logger,
) *Controller {
	if opts.MaxSpeechChars <= 0 {
		opts.MaxSpeechChars = domain.MaxSpeechChars
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &Controller{
		transcriber:    transcriber,
		responder:      responder,
		synthesizer:    synthesizer,
		publisher:      publisher,
		maxSpeechChars: opts.MaxSpeechChars,
		publishTimeout: opts.PublishTimeout,
		tracer:         otel.Tracer("healthvoice/pipeline"),
		logger:         logger,
	}
}

// RunVoice transcribes recorded audio and, when speech was found, answers it.
func (c *Controller) RunVoice(ctx context.Context, in VoiceInput, observe Observer) *domain.Interaction {
	r := c.begin(domain.InputVoice, in.Language, observe)
	defer c.finish(ctx, r)

	if len(in.Audio) == 0 {
		r.notice(domain.NoticeInfo, domain.StageSTT, MsgNoAudio)
		r.it.Outcome = domain.OutcomeEmptyInput
		return r.it
	}

	filename := in.Filename
	if filename == "" {
		filename = domain.DefaultAudioFilename
	}

	var transcript string
	err := c.stage(ctx, r, domain.StageSTT, func(ctx context.Context) error {
		var err error
		transcript, err = c.transcriber.Transcribe(ctx, in.Audio, filename)
		return err
	})
	if err != nil {
		r.notice(domain.NoticeError, domain.StageSTT, stageMessage(domain.StageSTT, err))
		r.it.Outcome = domain.OutcomeFailed
		return r.it
	}

	if strings.TrimSpace(transcript) == "" {
		r.notice(domain.NoticeInfo, domain.StageSTT, MsgNoSpeech)
		r.it.Outcome = domain.OutcomeNoSpeech
		return r.it
	}

	r.it.Transcript = transcript
	r.emit(domain.Event{Type: domain.EventTranscript, Transcript: transcript})

	c.answer(ctx, r, transcript)
	return r.it
}

// RunText answers a typed message.
func (c *Controller) RunText(ctx context.Context, in TextInput, observe Observer) *domain.Interaction {
	r := c.begin(domain.InputText, in.Language, observe)
	defer c.finish(ctx, r)

	if strings.TrimSpace(in.Message) == "" {
		r.notice(domain.NoticeInfo, domain.StageGeneration, MsgEmptyMessage)
		r.it.Outcome = domain.OutcomeEmptyInput
		return r.it
	}

	c.answer(ctx, r, in.Message)
	return r.it
}

// answer generates a reply and synthesizes it. Synthesis is attempted even
// on a degraded reply so the failure is also spoken.
func (c *Controller) answer(ctx context.Context, r *run, message string) {
	var reply domain.Reply
	_ = c.stage(ctx, r, domain.StageGeneration, func(ctx context.Context) error {
		reply = c.responder.Respond(ctx, message)
		if reply.Degraded {
			return errors.New(reply.Text)
		}
		return nil
	})
	r.it.Reply = &reply
	r.emit(domain.Event{Type: domain.EventReply, Reply: &reply})

	if _, truncated := domain.SpeechText(reply.Text, c.maxSpeechChars); truncated {
		r.it.Truncated = true
		r.ev.Truncated = true
		telemetry.ReplyTruncationsTotal.Inc()
	}

	var audio []byte
	err := c.stage(ctx, r, domain.StageTTS, func(ctx context.Context) error {
		var err error
		audio, err = c.synthesizer.Synthesize(ctx, reply.Text, r.it.Language.Code)
		if err == nil && len(audio) == 0 {
			err = domain.NewStageError(domain.StageTTS, domain.ErrEmptyResponse)
		}
		return err
	})
	if err != nil {
		r.notice(domain.NoticeWarning, domain.StageTTS, MsgAudioFailed+stageMessage(domain.StageTTS, err))
		r.it.Outcome = domain.OutcomePartial
		return
	}

	r.it.Audio = &domain.SynthesizedAudio{Data: audio, MIMEType: domain.AudioMIMEType}
	r.emit(domain.Event{Type: domain.EventAudio, Audio: r.it.Audio})

	if reply.Degraded {
		r.it.Outcome = domain.OutcomePartial
	} else {
		r.it.Outcome = domain.OutcomeCompleted
	}
}

// stage runs fn under a span and records its latency and status.
func (c *Controller) stage(ctx context.Context, r *run, stage domain.Stage, fn func(context.Context) error) error {
	r.emit(domain.Event{Type: domain.EventStage, Stage: stage})

	ctx, span := c.tracer.Start(ctx, "pipeline."+string(stage), trace.WithAttributes(
		attribute.String("interaction.id", r.it.ID),
		attribute.String("interaction.language", r.it.Language.Code),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	status := domain.StageOK
	if err != nil {
		status = domain.StageFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	r.ev.Stages[stage] = status
	r.ev.Latencies[stage] = elapsed
	telemetry.StageCallsTotal.WithLabelValues(string(stage), string(status)).Inc()
	telemetry.StageLatency.WithLabelValues(string(stage)).Observe(elapsed.Seconds())

	return err
}

func (c *Controller) begin(kind domain.InputKind, lang domain.Language, observe Observer) *run {
	now := time.Now()
	id := uuid.NewString()
	return &run{
		observe: observe,
		it: &domain.Interaction{
			ID:        id,
			Input:     kind,
			Language:  lang,
			Notices:   []domain.Notice{},
			StartedAt: now,
		},
		ev: &domain.InteractionEvent{
			ID:       id,
			Input:    kind,
			Language: lang.Code,
			Stages: map[domain.Stage]domain.StageStatus{
				domain.StageSTT:        domain.StageSkipped,
				domain.StageGeneration: domain.StageSkipped,
				domain.StageTTS:        domain.StageSkipped,
			},
			Latencies: make(map[domain.Stage]time.Duration, 3),
		},
	}
}

func (c *Controller) finish(ctx context.Context, r *run) {
	it := r.it
	it.Duration = time.Since(it.StartedAt)

	r.ev.Outcome = it.Outcome
	r.ev.Timestamp = time.Now()

	telemetry.InteractionsTotal.WithLabelValues(string(it.Input), string(it.Outcome)).Inc()
	telemetry.InteractionLatency.Observe(it.Duration.Seconds())

	c.logger.Info("Interaction finished",
		zap.String("id", it.ID),
		zap.String("input", string(it.Input)),
		zap.String("language", it.Language.Code),
		zap.String("outcome", string(it.Outcome)),
		zap.Int("notices", len(it.Notices)),
		zap.Bool("truncated", it.Truncated),
		zap.Duration("duration", it.Duration),
	)

	c.publish(ctx, r.ev)

	r.emit(domain.Event{Type: domain.EventDone, Interaction: it})
}

// publish is best-effort: a broken bus never affects the user's result.
func (c *Controller) publish(ctx context.Context, ev *domain.InteractionEvent) {
	if c.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.publishTimeout)
	defer cancel()

	if err := c.publisher.PublishInteraction(ctx, ev); err != nil {
		telemetry.EventPublishFailuresTotal.Inc()
		c.logger.Warn("Failed to publish interaction event",
			zap.String("id", ev.ID),
			zap.Error(err),
		)
	}
}

// stageMessage renders err with its stage prefix, adding one when the
// adapter returned a bare error.
func stageMessage(stage domain.Stage, err error) string {
	if _, ok := domain.StageOf(err); !ok {
		err = domain.NewStageError(stage, err)
	}
	return err.Error()
}

type run struct {
	it      *domain.Interaction
	ev      *domain.InteractionEvent
	observe Observer
}

func (r *run) emit(e domain.Event) {
	if r.observe != nil {
		r.observe(e)
	}
}

func (r *run) notice(level domain.NoticeLevel, stage domain.Stage, msg string) {
	r.it.AddNotice(level, stage, msg)
	n := r.it.Notices[len(r.it.Notices)-1]
	r.emit(domain.Event{Type: domain.EventNotice, Notice: &n})
}
