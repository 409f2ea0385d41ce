package domain

import "time"

// InputKind identifies the entry path of an interaction.
type InputKind string

const (
	InputVoice InputKind = "voice"
	InputText  InputKind = "text"
)

// DefaultAudioFilename is the filename hint sent with recorded audio.
const DefaultAudioFilename = "input.wav"

// AudioMIMEType is the content type of recorded and synthesized audio.
const AudioMIMEType = "audio/wav"

// Reply is the assistant's answer. Degraded is set when generation failed and
// Text carries the failure message instead of a model completion.
type Reply struct {
	Text     string `json:"text"`
	Degraded bool   `json:"degraded"`
}

// SynthesizedAudio holds the spoken reply.
type SynthesizedAudio struct {
	Data     []byte `json:"data"` // base64 in JSON
	MIMEType string `json:"mime_type"`
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message attached to an interaction.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Stage   Stage       `json:"stage,omitempty"`
	Message string      `json:"message"`
}

type Outcome string

const (
	OutcomeCompleted  Outcome = "completed"
	OutcomePartial    Outcome = "partial"
	OutcomeNoSpeech   Outcome = "no_speech"
	OutcomeEmptyInput Outcome = "empty_input"
	OutcomeFailed     Outcome = "failed"
)

// Interaction is the full result of one pipeline run.
type Interaction struct {
	ID         string            `json:"id"`
	Input      InputKind         `json:"input"`
	Language   Language          `json:"language"`
	Transcript string            `json:"transcript,omitempty"`
	Reply      *Reply            `json:"reply,omitempty"`
	Audio      *SynthesizedAudio `json:"audio,omitempty"`
	Truncated  bool              `json:"truncated"`
	Notices    []Notice          `json:"notices"`
	Outcome    Outcome           `json:"outcome"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration_ns"`
}

// AddNotice appends a notice to the interaction.
func (i *Interaction) AddNotice(level NoticeLevel, stage Stage, msg string) {
	i.Notices = append(i.Notices, Notice{Level: level, Stage: stage, Message: msg})
}

// EventType names a progress event streamed while an interaction runs.
type EventType string

const (
	EventStage      EventType = "stage"
	EventTranscript EventType = "transcript"
	EventReply      EventType = "reply"
	EventAudio      EventType = "audio"
	EventNotice     EventType = "notice"
	EventDone       EventType = "done"
)

// Event is a single progress update. Exactly one payload field is set,
// matching Type.
type Event struct {
	Type        EventType         `json:"type"`
	Stage       Stage             `json:"stage,omitempty"`
	Transcript  string            `json:"transcript,omitempty"`
	Reply       *Reply            `json:"reply,omitempty"`
	Audio       *SynthesizedAudio `json:"audio,omitempty"`
	Notice      *Notice           `json:"notice,omitempty"`
	Interaction *Interaction      `json:"interaction,omitempty"`
}

// StageStatus summarises how a stage ended.
type StageStatus string

const (
	StageOK      StageStatus = "ok"
	StageFailed  StageStatus = "failed"
	StageSkipped StageStatus = "skipped"
)

// InteractionEvent is published after every run. It never carries the
// transcript, the reply or the audio.
type InteractionEvent struct {
	ID        string                  `json:"id"`
	Input     InputKind               `json:"input"`
	Language  string                  `json:"language"`
	Outcome   Outcome                 `json:"outcome"`
	Stages    map[Stage]StageStatus   `json:"stages"`
	Latencies map[Stage]time.Duration `json:"latencies_ns"`
	Truncated bool                    `json:"truncated"`
	Timestamp time.Time               `json:"timestamp"`
}
