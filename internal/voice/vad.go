package voice

import (
	"encoding/binary"
	"math"
	"time"
)

// VADConfig tunes the amplitude-based voice activity detector.
type VADConfig struct {
	// Threshold is the normalized RMS amplitude (0..1) above which a
	// frame counts as speech.
	Threshold float64
	// MinSpeech is how long speech must be sustained before the
	// detector reports that the user started speaking.
	MinSpeech time.Duration
	// SilenceTimeout is how long the signal must stay below the
	// threshold before an in-progress utterance is finalized.
	SilenceTimeout time.Duration
}

func DefaultVADConfig() VADConfig {
	return VADConfig{
		Threshold:      0.02,
		MinSpeech:      200 * time.Millisecond,
		SilenceTimeout: 1200 * time.Millisecond,
	}
}

// VADEvent is the detector's verdict for a single audio frame.
type VADEvent int

const (
	VADNone VADEvent = iota
	VADSpeechStart
	VADSpeechEnd
)

// Detector infers speech boundaries from the RMS amplitude of 16-bit
// little-endian PCM frames. It is not safe for concurrent use; each
// session owns its own detector.
type Detector struct {
	cfg VADConfig

	speaking    bool
	speechSince time.Time // first loud frame of a candidate utterance
	lastLoud    time.Time
}

func NewDetector(cfg VADConfig) *Detector {
	if cfg.Threshold <= 0 {
		cfg = DefaultVADConfig()
	}
	return &Detector{cfg: cfg}
}

// Feed processes one PCM frame stamped at now and reports whether the
// frame opened or closed an utterance.
func (d *Detector) Feed(frame []byte, now time.Time) VADEvent {
	loud := RMS(frame) >= d.cfg.Threshold

	if loud {
		if d.speechSince.IsZero() {
			d.speechSince = now
		}
		d.lastLoud = now
		if !d.speaking && now.Sub(d.speechSince) >= d.cfg.MinSpeech {
			d.speaking = true
			return VADSpeechStart
		}
		return VADNone
	}

	if !d.speaking {
		// A quiet frame resets a candidate that never reached MinSpeech.
		d.speechSince = time.Time{}
		return VADNone
	}

	if now.Sub(d.lastLoud) >= d.cfg.SilenceTimeout {
		d.speaking = false
		d.speechSince = time.Time{}
		return VADSpeechEnd
	}

	return VADNone
}

// Speaking reports whether the detector is inside an utterance.
func (d *Detector) Speaking() bool {
	return d.speaking
}

// Reset clears all detector state, e.g. after the mic is suspended.
func (d *Detector) Reset() {
	d.speaking = false
	d.speechSince = time.Time{}
	d.lastLoud = time.Time{}
}

// RMS computes the normalized root-mean-square amplitude of a 16-bit
// little-endian PCM frame. Returns 0 for frames shorter than one sample.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
