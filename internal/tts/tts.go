// Package tts renders text to the default audio output. Two backends:
// the macOS say command and piper.
package tts

import "fmt"

// Speaker synthesizes text and blocks until playback finishes.
type Speaker interface {
	Speak(text string) error
}

// New builds the configured backend. For "say", voice is a macOS voice
// name; for "piper", voice is the path to a piper voice model.
// Construction fails when the backend cannot run on this machine.
func New(backend, voice string, rate int) (Speaker, error) {
	switch backend {
	case "say":
		return newSay(voice, rate)
	case "piper":
		return newPiper(voice, "piper")
	default:
		return nil, fmt.Errorf("unknown tts backend %q", backend)
	}
}
