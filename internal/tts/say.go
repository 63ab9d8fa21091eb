package tts

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
)

// say uses the macOS built-in speech synthesizer. Run `say -v ?` to
// list voices.
type say struct {
	voice string
	rate  int // words per minute; the system default ~200 is too fast
}

func newSay(voice string, rate int) (*say, error) {
	if runtime.GOOS != "darwin" {
		return nil, fmt.Errorf("the say backend is only available on macOS (running on %s)", runtime.GOOS)
	}
	return &say{voice: voice, rate: rate}, nil
}

func (s *say) Speak(text string) error {
	if text == "" {
		return nil
	}
	cmd := exec.Command("say", s.args(text)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("say: %w (%s)", err, out)
	}
	return nil
}

func (s *say) args(text string) []string {
	return []string{"-v", s.voice, "-r", strconv.Itoa(s.rate), text}
}
