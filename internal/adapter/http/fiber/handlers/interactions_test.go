package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/healthvoice/internal/domain"
	"github.com/seu-repo/healthvoice/internal/mocks"
	"github.com/seu-repo/healthvoice/internal/service/pipeline"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type fixture struct {
	stt       *mocks.MockTranscriber
	responder *mocks.MockResponder
	tts       *mocks.MockSynthesizer
	app       *fiber.App
}

func newFixture() *fixture {
	log := newTestLogger()
	f := &fixture{
		stt:       &mocks.MockTranscriber{},
		responder: &mocks.MockResponder{},
		tts:       &mocks.MockSynthesizer{},
	}
	ctrl := pipeline.NewController(f.stt, f.responder, f.tts, &mocks.MockEventPublisher{}, pipeline.Options{}, log)
	h := NewInteractionHandler(ctrl, 5*time.Second, log)

	f.app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	f.app.Get("/api/v1/languages", Languages)
	f.app.Post("/api/v1/interactions/voice", h.Voice)
	f.app.Post("/api/v1/interactions/text", h.Text)
	return f
}

func voiceRequest(t *testing.T, field string, audio []byte, language string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, "input.wav")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write(audio)
	}
	if language != "" {
		_ = w.WriteField("language", language)
	}
	_ = w.Close()

	req := httptest.NewRequest("POST", "/api/v1/interactions/voice", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func textRequest(body string) *http.Request {
	req := httptest.NewRequest("POST", "/api/v1/interactions/text", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeInteraction(t *testing.T, resp *http.Response) domain.Interaction {
	t.Helper()
	var it domain.Interaction
	if err := json.NewDecoder(resp.Body).Decode(&it); err != nil {
		t.Fatalf("decode interaction: %v", err)
	}
	return it
}

func TestLanguages(t *testing.T) {
	f := newFixture()

	resp, err := f.app.Test(httptest.NewRequest("GET", "/api/v1/languages", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var body struct {
		Languages []domain.Language `json:"languages"`
		Default   domain.Language   `json:"default"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Languages) != 10 || body.Languages[0].Code != "bn-IN" {
		t.Errorf("unexpected languages %+v", body.Languages)
	}
	if body.Default.Name != "Bengali" {
		t.Errorf("expected Bengali default, got %+v", body.Default)
	}
}

func TestVoice_JSON(t *testing.T) {
	f := newFixture()
	f.stt.TranscribeFunc = func(ctx context.Context, audio []byte, filename string) (string, error) {
		if string(audio) != "RIFFclip" {
			t.Errorf("unexpected audio %q", audio)
		}
		return "turning schedule for bedridden patients", nil
	}
	f.tts.SynthesizeFunc = func(ctx context.Context, text, locale string) ([]byte, error) {
		return []byte{1, 2, 3}, nil
	}

	resp, err := f.app.Test(voiceRequest(t, "audio", []byte("RIFFclip"), "Hindi"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	it := decodeInteraction(t, resp)
	if it.Outcome != domain.OutcomeCompleted || it.Language.Code != "hi-IN" {
		t.Errorf("unexpected interaction %+v", it)
	}
	if it.Audio == nil || !bytes.Equal(it.Audio.Data, []byte{1, 2, 3}) {
		t.Errorf("expected audio round trip, got %+v", it.Audio)
	}
	if f.tts.LastLocale != "hi-IN" {
		t.Errorf("expected hi-IN routed to synthesis, got %s", f.tts.LastLocale)
	}
}

func TestVoice_FileFieldAlias(t *testing.T) {
	f := newFixture()
	f.stt.TranscribeFunc = func(ctx context.Context, audio []byte, filename string) (string, error) {
		return "", nil
	}

	resp, err := f.app.Test(voiceRequest(t, "file", []byte("RIFF"), ""))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	it := decodeInteraction(t, resp)
	if it.Outcome != domain.OutcomeNoSpeech {
		t.Errorf("expected no_speech, got %s", it.Outcome)
	}
	if it.Language.Code != "bn-IN" {
		t.Errorf("expected default language, got %+v", it.Language)
	}
}

func TestVoice_BadRequests(t *testing.T) {
	f := newFixture()

	cases := []struct {
		name string
		req  *http.Request
	}{
		{"missing file", voiceRequest(t, "", nil, "English")},
		{"unknown language", voiceRequest(t, "audio", []byte("RIFF"), "Klingon")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := f.app.Test(tc.req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
	if f.stt.Calls != 0 {
		t.Error("transcriber must not be called for rejected requests")
	}
}

func TestText_JSON(t *testing.T) {
	f := newFixture()
	f.responder.RespondFunc = func(ctx context.Context, message string) domain.Reply {
		return domain.Reply{Text: "Here is a discharge checklist."}
	}

	resp, err := f.app.Test(textRequest(`{"message":"discharge paperwork","language":"ta-IN"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	it := decodeInteraction(t, resp)
	if it.Reply == nil || it.Reply.Text != "Here is a discharge checklist." {
		t.Errorf("unexpected reply %+v", it.Reply)
	}
	if f.responder.LastMessage != "discharge paperwork" {
		t.Errorf("unexpected message %q", f.responder.LastMessage)
	}
	if it.Language.Name != "Tamil" {
		t.Errorf("expected Tamil, got %+v", it.Language)
	}
}

func TestText_FormBody(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest("POST", "/api/v1/interactions/text",
		strings.NewReader("message=PPE+checklist&language=Gujarati"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	it := decodeInteraction(t, resp)
	if it.Language.Code != "gu-IN" || f.responder.LastMessage != "PPE checklist" {
		t.Errorf("unexpected interaction %+v (message %q)", it, f.responder.LastMessage)
	}
}

func TestText_EmptyMessageIsNotAnHTTPError(t *testing.T) {
	f := newFixture()

	resp, err := f.app.Test(textRequest(`{"message":"   "}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	it := decodeInteraction(t, resp)
	if it.Outcome != domain.OutcomeEmptyInput || len(it.Notices) != 1 {
		t.Errorf("expected empty_input with a notice, got %+v", it)
	}
}

func TestText_InvalidJSON(t *testing.T) {
	f := newFixture()

	resp, err := f.app.Test(textRequest(`{"message":`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func readEvents(t *testing.T, body io.Reader) []domain.Event {
	t.Helper()
	var events []domain.Event
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev domain.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad event %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestText_EventStream(t *testing.T) {
	f := newFixture()
	f.tts.SynthesizeFunc = func(ctx context.Context, text, locale string) ([]byte, error) {
		return nil, domain.NewStageError(domain.StageTTS, io.ErrUnexpectedEOF)
	}

	req := textRequest(`{"message":"vaccination flyer","language":"English"}`)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("expected event stream, got %q", ct)
	}

	events := readEvents(t, resp.Body)
	var types []domain.EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	want := []domain.EventType{
		domain.EventStage, domain.EventReply,
		domain.EventStage, domain.EventNotice,
		domain.EventDone,
	}
	if len(types) != len(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}

	notice := events[3].Notice
	if notice == nil || notice.Level != domain.NoticeWarning || !strings.HasPrefix(notice.Message, "Could not generate audio: TTS Error:") {
		t.Errorf("unexpected notice %+v", notice)
	}
	done := events[4].Interaction
	if done == nil || done.Outcome != domain.OutcomePartial || done.Reply == nil {
		t.Errorf("unexpected final interaction %+v", done)
	}
}
