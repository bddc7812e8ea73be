package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"oral-coach-be/internal/dto"
	"oral-coach-be/internal/pkg/logger"
	"oral-coach-be/internal/service"
	"oral-coach-be/internal/voice"
)

const (
	transcribeTimeout = 30 * time.Second
	turnTimeout       = 60 * time.Second
	synthesisTimeout  = 30 * time.Second
)

// controlMessage is the JSON envelope for client text frames.
type controlMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// VoiceSession glues one websocket connection to the turn-taking
// controller and the practice pipeline: audio in, transcription, turn
// processing, synthesis, audio out.
type VoiceSession struct {
	client     *Client
	practice   service.IPracticeService
	coach      service.ICoachService
	controller *voice.Controller
	log        logger.ILogger

	sessionKey string
	userId     uuid.UUID
	language   string

	closeOnce sync.Once
}

func NewVoiceSession(
	client *Client,
	practice service.IPracticeService,
	coach service.ICoachService,
	vadCfg voice.VADConfig,
	language string,
	log logger.ILogger,
) *VoiceSession {
	vs := &VoiceSession{
		client:     client,
		practice:   practice,
		coach:      coach,
		log:        log,
		sessionKey: client.SessionKey,
		userId:     client.UserID,
		language:   language,
	}

	vs.controller = voice.NewController(client.SessionKey, vadCfg, voice.Hooks{
		OnStateChange: vs.sendStateEvent,
		OnUtterance:   vs.onUtterance,
		OnStopPlayback: func() {
			vs.sendEvent(map[string]interface{}{"type": "stop_playback"})
		},
	}, log)

	return vs
}

// OnAudioFrame feeds one binary mic frame into the VAD.
func (vs *VoiceSession) OnAudioFrame(frame []byte) {
	vs.controller.PushAudio(frame, time.Now())
}

// OnControl handles a JSON control frame from the client.
func (vs *VoiceSession) OnControl(data []byte) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		vs.log.Warn("voice", "unparseable control frame", map[string]interface{}{
			"session_key": vs.sessionKey,
			"error":       err.Error(),
		})
		return
	}

	switch msg.Type {
	case "start_listening":
		vs.controller.StartListening()
	case "playback_complete":
		vs.controller.PlaybackComplete()
	case "text_turn":
		// Typed fallback for clients without a working mic.
		if msg.Message != "" {
			vs.controller.BeginGeneration()
			go vs.runTurn(msg.Message)
		}
	case "end_session":
		vs.Close()
	}
}

// Close tears the voice session down. Safe to call more than once.
func (vs *VoiceSession) Close() {
	vs.closeOnce.Do(func() {
		vs.controller.End()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := vs.practice.EndSession(ctx, vs.userId, vs.sessionKey); err != nil {
			vs.log.Warn("voice", "best-effort end-session failed", map[string]interface{}{
				"session_key": vs.sessionKey,
				"error":       err.Error(),
			})
		}
	})
}

// onUtterance runs when the VAD closes an utterance: the mic is already
// suspended by the controller before anything slow happens.
func (vs *VoiceSession) onUtterance(audio []byte) {
	vs.controller.BeginGeneration()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
		defer cancel()

		text, err := vs.coach.TranscribeUserAudio(ctx, bytes.NewReader(audio), "utterance.wav", vs.language)
		if err != nil {
			vs.sendEvent(map[string]interface{}{"type": "error", "message": "transcription failed"})
			vs.controller.AbortGeneration()
			return
		}
		if text == "" {
			vs.controller.AbortGeneration()
			return
		}

		vs.sendEvent(map[string]interface{}{"type": "transcript", "text": text})
		vs.runTurn(text)
	}()
}

func (vs *VoiceSession) runTurn(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	turn, err := vs.practice.ProcessTurn(ctx, vs.userId, dto.TurnRequest{
		SessionKey:  vs.sessionKey,
		UserMessage: text,
	})
	if vs.controller.Ended() {
		// The session was cancelled while the turn was in flight; the
		// late result is discarded without surfacing an error.
		return
	}
	if err != nil {
		vs.sendEvent(map[string]interface{}{"type": "error", "message": "turn failed"})
		vs.controller.AbortGeneration()
		return
	}

	vs.sendEvent(map[string]interface{}{"type": "turn", "data": turn})

	audio, err := vs.synthesize(turn.CoachResponse)
	if err != nil {
		// The learner still has the text; reopen the mic.
		vs.controller.AbortGeneration()
		return
	}

	if !vs.controller.BeginPlayback() {
		return
	}
	vs.client.Hub.SendToSession(vs.sessionKey, audio)
}

func (vs *VoiceSession) synthesize(text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), synthesisTimeout)
	defer cancel()

	stream, err := vs.coach.SynthesizeCoachAudio(ctx, text)
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	return io.ReadAll(stream)
}

func (vs *VoiceSession) sendStateEvent(from, to voice.State) {
	vs.sendEvent(map[string]interface{}{
		"type": "state",
		"from": string(from),
		"to":   string(to),
	})
}

func (vs *VoiceSession) sendEvent(payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	vs.client.Hub.SendToSession(vs.sessionKey, data)
}
