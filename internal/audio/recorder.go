// Package audio captures microphone input through portaudio.
package audio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	frameSize = 1024

	// Recording is capped so a forgotten stop key cannot grow the
	// buffer forever.
	maxDuration = 60 * time.Second
)

// Recorder is a push-to-talk microphone recorder. Start begins capture
// on a background reader; Stop ends it and hands back the samples. The
// buffer is only touched by the caller after Stop returns.
type Recorder struct {
	sampleRate int

	stream  *portaudio.Stream
	samples []float32
	readErr error
	stop    chan struct{}
	done    chan struct{}
}

func NewRecorder(sampleRate int) *Recorder {
	return &Recorder{sampleRate: sampleRate}
}

// Init brings up portaudio. Call Close when done with the session.
func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Start opens the default input device and begins capturing.
func (r *Recorder) Start() error {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), len(buf), buf)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start input stream: %w", err)
	}

	r.stream = stream
	r.samples = r.samples[:0]
	r.readErr = nil
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go r.capture(buf)
	return nil
}

func (r *Recorder) capture(buf []float32) {
	defer close(r.done)

	deadline := time.Now().Add(maxDuration)
	for {
		select {
		case <-r.stop:
			return
		default:
		}
		if time.Now().After(deadline) {
			return
		}

		if err := r.stream.Read(); err != nil {
			r.readErr = err
			return
		}
		r.samples = append(r.samples, buf...)
	}
}

// Stop ends capture and returns everything recorded since Start.
func (r *Recorder) Stop() ([]float32, error) {
	if r.stream == nil {
		return nil, nil
	}

	close(r.stop)
	<-r.done

	r.stream.Stop()
	r.stream.Close()
	r.stream = nil

	if r.readErr != nil {
		return nil, fmt.Errorf("read input stream: %w", r.readErr)
	}

	out := make([]float32, len(r.samples))
	copy(out, r.samples)
	return out, nil
}

// Diagnostics summarizes a capture for debug logging.
type Diagnostics struct {
	Duration time.Duration
	Peak     float32
	Silent   bool
}

func Diagnose(pcm []float32, sampleRate int) Diagnostics {
	var peak float32
	for _, s := range pcm {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	var dur time.Duration
	if sampleRate > 0 {
		dur = time.Duration(float64(len(pcm)) / float64(sampleRate) * float64(time.Second))
	}
	return Diagnostics{
		Duration: dur,
		Peak:     peak,
		Silent:   peak < 0.001,
	}
}
