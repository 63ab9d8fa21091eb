// Package playback owns the beep speaker session: the listening cue
// tone and WAV playback for synthesized speech.
package playback

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

const sessionRate = beep.SampleRate(44100)

// ErrNotReady means Init never succeeded. Playing into an
// uninitialized speaker would enqueue onto a mixer nothing drains and
// block forever, so Tone and WAV refuse instead.
var ErrNotReady = errors.New("speaker not initialized")

var ready bool

// Init brings up the speaker. Failure disables the cue and piper
// playback but is not fatal for the session.
func Init() error {
	if err := speaker.Init(sessionRate, sessionRate.N(time.Second/10)); err != nil {
		return err
	}
	ready = true
	return nil
}

// Tone plays a short sine tone, blocking until it finishes.
func Tone(freq int, d time.Duration) error {
	if !ready {
		return ErrNotReady
	}
	tone, err := generators.SinTone(sessionRate, freq)
	if err != nil {
		return fmt.Errorf("generate tone: %w", err)
	}
	play(beep.Take(sessionRate.N(d), tone))
	return nil
}

// WAV decodes and plays a WAV stream, blocking until done.
func WAV(r io.Reader) error {
	if !ready {
		return ErrNotReady
	}
	streamer, format, err := wav.Decode(io.NopCloser(r))
	if err != nil {
		return fmt.Errorf("decode wav: %w", err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != sessionRate {
		s = beep.Resample(4, format.SampleRate, sessionRate, s)
	}
	play(s)
	return nil
}

func play(s beep.Streamer) {
	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))
	<-done
}
