package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func testController(hooks Hooks) *Controller {
	cfg := VADConfig{Threshold: 0.02, MinSpeech: 200 * time.Millisecond, SilenceTimeout: 1200 * time.Millisecond}
	return NewController("oral_test", cfg, hooks, nopLogger{})
}

// speakUtterance drives the controller through a full spoken utterance.
func speakUtterance(c *Controller, start time.Time) {
	loud := pcmFrame(8000, 160)
	quiet := pcmFrame(0, 160)
	for ms := 0; ms <= 400; ms += 100 {
		c.PushAudio(loud, start.Add(time.Duration(ms)*time.Millisecond))
	}
	c.PushAudio(quiet, start.Add(500*time.Millisecond))
	c.PushAudio(quiet, start.Add(2000*time.Millisecond))
}

func TestControllerHappyPathTurn(t *testing.T) {
	var transitions [][2]State
	var utterance []byte
	c := testController(Hooks{
		OnStateChange: func(from, to State) { transitions = append(transitions, [2]State{from, to}) },
		OnUtterance:   func(audio []byte) { utterance = audio },
	})

	assert.Equal(t, StateIdle, c.State())
	c.StartListening()
	assert.Equal(t, StateListening, c.State())

	speakUtterance(c, time.Now())
	assert.NotEmpty(t, utterance, "finalized utterance carries the captured audio")
	assert.Equal(t, StateIdle, c.State())

	c.BeginGeneration()
	assert.Equal(t, StateGenerating, c.State())
	assert.True(t, c.BeginPlayback())
	assert.Equal(t, StateCoachSpeaking, c.State())
	c.PlaybackComplete()
	assert.Equal(t, StateListening, c.State(), "mic reopens once the coach finishes")

	assert.Equal(t, [][2]State{
		{StateIdle, StateListening},
		{StateListening, StateUserSpeaking},
		{StateUserSpeaking, StateIdle},
		{StateIdle, StateGenerating},
		{StateGenerating, StateCoachSpeaking},
		{StateCoachSpeaking, StateListening},
	}, transitions)
}

func TestControllerDropsFramesWhileCoachHoldsChannel(t *testing.T) {
	utterances := 0
	c := testController(Hooks{
		OnUtterance: func([]byte) { utterances++ },
	})

	c.StartListening()
	c.BeginGeneration()
	assert.True(t, c.BeginPlayback())

	// Mic input during playback is the coach's own voice on many client
	// setups; it must never become an utterance.
	speakUtterance(c, time.Now())
	assert.Equal(t, 0, utterances)
	assert.Equal(t, StateCoachSpeaking, c.State())
}

func TestControllerDeferredMicResume(t *testing.T) {
	c := testController(Hooks{})

	c.StartListening()
	c.BeginGeneration()
	assert.True(t, c.BeginPlayback())

	// Next turn's generation starts while the coach is still speaking:
	// playback completion must not reopen the mic in the gap.
	c.QueueGeneration()
	c.PlaybackComplete()
	assert.Equal(t, StateGenerating, c.State())

	assert.True(t, c.BeginPlayback())
	c.PlaybackComplete()
	assert.Equal(t, StateListening, c.State())
}

func TestControllerAbortGenerationReopensMic(t *testing.T) {
	c := testController(Hooks{})

	c.StartListening()
	c.BeginGeneration()
	c.AbortGeneration()
	assert.Equal(t, StateListening, c.State())

	// Abort outside generating is a no-op.
	c.AbortGeneration()
	assert.Equal(t, StateListening, c.State())
}

func TestControllerEnd(t *testing.T) {
	playbackStopped := false
	c := testController(Hooks{
		OnStopPlayback: func() { playbackStopped = true },
	})

	c.StartListening()
	c.BeginGeneration()
	assert.True(t, c.BeginPlayback())

	c.End()
	assert.True(t, c.Ended())
	assert.True(t, playbackStopped, "ending mid-playback cuts the coach audio")
	assert.Equal(t, StateIdle, c.State())

	// Everything after End is inert.
	assert.False(t, c.BeginPlayback(), "late synthesis results are dropped")
	c.StartListening()
	assert.Equal(t, StateIdle, c.State())
	c.End()
	assert.True(t, c.Ended())
}

func TestControllerStartListeningOnlyFromIdle(t *testing.T) {
	c := testController(Hooks{})

	c.StartListening()
	c.BeginGeneration()
	c.StartListening()
	assert.Equal(t, StateGenerating, c.State(), "listening cannot preempt generation")
}
