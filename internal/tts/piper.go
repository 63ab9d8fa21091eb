package tts

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"parley/internal/playback"
)

// piper runs the piper binary, captures the WAV it writes to stdout and
// plays it through the speaker. See github.com/rhasspy/piper.
type piper struct {
	bin       string
	modelPath string
}

func newPiper(modelPath, bin string) (*piper, error) {
	if modelPath == "" {
		return nil, errors.New("piper backend needs a voice model path (set tts_voice)")
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("piper binary not found: %w", err)
	}
	return &piper{bin: path, modelPath: modelPath}, nil
}

func (p *piper) Speak(text string) error {
	if text == "" {
		return nil
	}

	var wavOut, errOut bytes.Buffer
	cmd := exec.Command(p.bin, "--model", p.modelPath, "--output_file", "-")
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = &wavOut
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("piper: %w (%s)", err, strings.TrimSpace(errOut.String()))
	}

	return playback.WAV(bytes.NewReader(wavOut.Bytes()))
}
