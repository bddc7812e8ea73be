package voice

import (
	"bytes"
	"sync"
	"time"

	"oral-coach-be/internal/pkg/logger"
)

// State is the turn-taking state of one voice session.
type State string

const (
	StateIdle          State = "idle"
	StateListening     State = "listening"
	StateUserSpeaking  State = "user_speaking"
	StateGenerating    State = "generating"
	StateCoachSpeaking State = "coach_speaking"
)

// Hooks are the controller's outbound edges. All hooks are invoked
// outside the controller lock and may be nil.
type Hooks struct {
	// OnStateChange fires after every transition.
	OnStateChange func(from, to State)
	// OnUtterance receives the recorded audio of a finalized utterance.
	OnUtterance func(audio []byte)
	// OnStopPlayback asks the transport to cut any in-flight coach audio.
	OnStopPlayback func()
}

// Controller enforces half-duplex turn-taking for one voice session:
// at most one of microphone capture and coach playback is active at any
// instant. It is safe for concurrent use, though in practice a session
// is driven by a single websocket read pump.
type Controller struct {
	sessionKey string
	detector   *Detector
	hooks      Hooks
	log        logger.ILogger

	mu         sync.Mutex
	state      State
	pendingGen bool // generation for the next turn already queued
	ended      bool
	capture    bytes.Buffer
}

func NewController(sessionKey string, cfg VADConfig, hooks Hooks, log logger.ILogger) *Controller {
	return &Controller{
		sessionKey: sessionKey,
		detector:   NewDetector(cfg),
		hooks:      hooks,
		log:        log,
		state:      StateIdle,
	}
}

// State returns the current turn-taking state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartListening opens the mic at session or turn start. It is a no-op
// while the coach holds the channel or after the session ended.
func (c *Controller) StartListening() {
	c.mu.Lock()
	if c.ended || c.state != StateIdle {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.state = StateListening
	c.detector.Reset()
	c.capture.Reset()
	c.mu.Unlock()

	c.notify(from, StateListening)
}

// PushAudio feeds one PCM frame from the mic. Frames arriving while the
// mic is suspended are dropped, which keeps the coach's own voice out
// of transcription.
func (c *Controller) PushAudio(frame []byte, now time.Time) {
	c.mu.Lock()
	if c.ended || (c.state != StateListening && c.state != StateUserSpeaking) {
		c.mu.Unlock()
		return
	}

	// Buffer from the first frame so utterance onsets are not clipped
	// by the sustained-duration requirement.
	c.capture.Write(frame)

	switch c.detector.Feed(frame, now) {
	case VADSpeechStart:
		from := c.state
		c.state = StateUserSpeaking
		c.mu.Unlock()
		c.notify(from, StateUserSpeaking)

	case VADSpeechEnd:
		from := c.state
		c.state = StateIdle
		audio := make([]byte, c.capture.Len())
		copy(audio, c.capture.Bytes())
		c.capture.Reset()
		c.mu.Unlock()

		c.notify(from, StateIdle)
		if c.hooks.OnUtterance != nil {
			c.hooks.OnUtterance(audio)
		}

	default:
		if c.state == StateListening {
			// Nothing sustained yet; cap the pre-speech buffer.
			if c.capture.Len() > 64*1024 {
				c.capture.Reset()
			}
		}
		c.mu.Unlock()
	}
}

// BeginGeneration suspends the mic while the model produces the coach's
// reply. Any partial capture is discarded.
func (c *Controller) BeginGeneration() {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.state = StateGenerating
	c.pendingGen = true
	c.detector.Reset()
	c.capture.Reset()
	c.mu.Unlock()

	c.notify(from, StateGenerating)
}

// AbortGeneration reopens the mic after a failed generation so the
// learner can retry the turn.
func (c *Controller) AbortGeneration() {
	c.mu.Lock()
	if c.ended || c.state != StateGenerating {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.state = StateListening
	c.pendingGen = false
	c.detector.Reset()
	c.capture.Reset()
	c.mu.Unlock()

	c.notify(from, StateListening)
}

// BeginPlayback marks the coach audio as playing. Returns false when the
// session ended while generating; the caller must then drop the audio.
func (c *Controller) BeginPlayback() bool {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return false
	}
	from := c.state
	c.state = StateCoachSpeaking
	c.pendingGen = false
	c.mu.Unlock()

	c.notify(from, StateCoachSpeaking)
	return true
}

// QueueGeneration records that the next turn's generation started while
// the coach is still speaking. The mic stays closed across the gap
// between the two coach utterances.
func (c *Controller) QueueGeneration() {
	c.mu.Lock()
	if !c.ended && c.state == StateCoachSpeaking {
		c.pendingGen = true
	}
	c.mu.Unlock()
}

// PlaybackComplete resumes the mic unless a next-turn generation is
// already pending.
func (c *Controller) PlaybackComplete() {
	c.mu.Lock()
	if c.ended || c.state != StateCoachSpeaking {
		c.mu.Unlock()
		return
	}
	from := c.state
	var to State
	if c.pendingGen {
		to = StateGenerating
	} else {
		to = StateListening
		c.detector.Reset()
		c.capture.Reset()
	}
	c.state = to
	c.mu.Unlock()

	c.notify(from, to)
}

// End tears the session down: playback is stopped, the mic is closed,
// and any turn result that lands afterwards is discarded.
func (c *Controller) End() {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.ended = true
	c.state = StateIdle
	c.pendingGen = false
	c.capture.Reset()
	c.mu.Unlock()

	if from == StateCoachSpeaking && c.hooks.OnStopPlayback != nil {
		c.hooks.OnStopPlayback()
	}
	c.notify(from, StateIdle)

	c.log.Info("voice", "session ended", map[string]interface{}{
		"session_key": c.sessionKey,
		"last_state":  string(from),
	})
}

// Ended reports whether End has been called.
func (c *Controller) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

func (c *Controller) notify(from, to State) {
	if from != to && c.hooks.OnStateChange != nil {
		c.hooks.OnStateChange(from, to)
	}
}
