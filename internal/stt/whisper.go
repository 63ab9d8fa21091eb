// Package stt binds the whisper.cpp speech recognizer.
package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

type Options struct {
	Language string // e.g. "en", "fr", "auto"
	Threads  int    // <=0 => NumCPU()
}

// Transcriber wraps a loaded whisper.cpp model.
type Transcriber struct {
	model whisper.Model
	opt   Options
}

// ModelPath resolves a model size name ("tiny", "base", "small",
// "medium", "large") to a ggml file under dir. Values that already look
// like a path are returned as-is.
func ModelPath(dir, model string) string {
	if strings.ContainsRune(model, filepath.Separator) || strings.HasSuffix(model, ".bin") {
		return model
	}
	return filepath.Join(dir, "ggml-"+model+".bin")
}

// New loads the model at modelPath. Loading is the expensive part;
// construction failure is fatal for the session.
func New(modelPath string, opt Options) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	if opt.Language == "" {
		opt.Language = "auto"
	}
	return &Transcriber{model: m, opt: opt}, nil
}

func (t *Transcriber) Close() error {
	if t.model == nil {
		return nil
	}
	return t.model.Close()
}

// Transcribe recognizes mono 16 kHz float32 PCM and returns the joined
// segment text. Empty audio yields an empty string, not an error.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	if t.model == nil {
		return "", errors.New("nil model")
	}
	if len(pcm) == 0 {
		return "", nil
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("new context: %w", err)
	}

	if err := wctx.SetLanguage(t.opt.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}

	threads := t.opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	var parts []string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}
		parts = append(parts, seg.Text)
	}

	return strings.TrimSpace(strings.Join(parts, " ")), nil
}
