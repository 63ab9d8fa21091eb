// Package assistant drives the turn cycle: push-to-talk capture,
// transcription, completion, spoken reply.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"parley/internal/chat"
	"parley/internal/speech"
)

// State of the turn loop. Exactly one turn is in flight at any time.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateTranscribing
	StateAwaitingCompletion
	StateSpeaking
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	case StateAwaitingCompletion:
		return "awaiting-completion"
	case StateSpeaking:
		return "speaking"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Recorder captures microphone audio between Start and Stop.
type Recorder interface {
	Start() error
	Stop() ([]float32, error)
}

// Transcriber turns mono PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

// Chatter runs one completion round and can reset its history.
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
	Reset()
}

// Speaker renders text aloud.
type Speaker interface {
	Speak(text string) error
}

// KeySource blocks until the user presses a key.
type KeySource interface {
	ReadKey() (byte, error)
}

// Control keys. Raw mode delivers Ctrl+C and Ctrl+D as plain bytes.
const (
	keyTalk  = ' '
	keyCtrlC = 0x03
	keyCtrlD = 0x04
)

type Config struct {
	SampleRate int
	// MinTurn is the shortest capture worth transcribing; anything
	// below it is discarded as an accidental tap.
	MinTurn time.Duration
	// Name labels assistant replies in the transcript.
	Name string
	// Out receives user-facing transcript and status lines.
	Out io.Writer
	// Cue, if set, plays the listening cue when recording starts.
	Cue func()
	// OnCapture, if set, observes every accepted capture (debug dumps).
	OnCapture func(pcm []float32)
}

// Loop is the orchestrator. Single-threaded and strictly turn-based:
// every collaborator call is synchronous.
type Loop struct {
	cfg     Config
	keys    KeySource
	rec     Recorder
	stt     Transcriber
	chatter Chatter
	tts     Speaker

	state   State
	pcm     []float32
	pending string
	reply   string
}

func New(cfg Config, keys KeySource, rec Recorder, stt Transcriber, chatter Chatter, tts Speaker) *Loop {
	if cfg.MinTurn <= 0 {
		cfg.MinTurn = 300 * time.Millisecond
	}
	if cfg.Name == "" {
		cfg.Name = "Parley"
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &Loop{
		cfg:     cfg,
		keys:    keys,
		rec:     rec,
		stt:     stt,
		chatter: chatter,
		tts:     tts,
		state:   StateIdle,
	}
}

// State reports the loop's current state.
func (l *Loop) State() State { return l.state }

// Run blocks until the user quits or ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	fmt.Fprint(l.cfg.Out, "Press SPACE to talk, R to reset, Q to quit.\n\n")

	for l.state != StateStopped {
		if ctx.Err() != nil {
			l.farewell()
			return ctx.Err()
		}

		switch l.state {
		case StateIdle:
			l.idle()
		case StateRecording:
			l.record()
		case StateTranscribing:
			l.transcribe(ctx)
		case StateAwaitingCompletion:
			l.complete(ctx)
		case StateSpeaking:
			l.speak()
		}
	}
	return nil
}

func (l *Loop) idle() {
	key, err := l.keys.ReadKey()
	if err != nil {
		// Closed stdin ends the session like a quit key.
		l.farewell()
		l.state = StateStopped
		return
	}

	switch key {
	case 'q', 'Q', keyCtrlC, keyCtrlD:
		l.farewell()
		l.state = StateStopped
	case 'r', 'R':
		l.chatter.Reset()
		fmt.Fprint(l.cfg.Out, "  (conversation reset)\n\n")
	case keyTalk:
		if err := l.rec.Start(); err != nil {
			fmt.Fprintf(l.cfg.Out, "  Error: %v\n\n", err)
			return
		}
		if l.cfg.Cue != nil {
			l.cfg.Cue()
		}
		l.status("Listening... press SPACE to stop")
		l.state = StateRecording
	}
}

func (l *Loop) record() {
	// Any read error counts as a stop so the stream is not left open.
	for {
		key, err := l.keys.ReadKey()
		if err != nil || key == keyTalk {
			break
		}
	}

	pcm, err := l.rec.Stop()
	l.clearStatus()
	if err != nil {
		fmt.Fprintf(l.cfg.Out, "  Error: %v\n\n", err)
		l.state = StateIdle
		return
	}

	if len(pcm) == 0 {
		fmt.Fprint(l.cfg.Out, "  (no audio captured)\n\n")
		l.state = StateIdle
		return
	}

	dur := time.Duration(float64(len(pcm)) / float64(l.cfg.SampleRate) * float64(time.Second))
	if dur < l.cfg.MinTurn {
		fmt.Fprint(l.cfg.Out, "  (too short, skipped)\n\n")
		l.state = StateIdle
		return
	}

	if l.cfg.OnCapture != nil {
		l.cfg.OnCapture(pcm)
	}

	l.pcm = pcm
	l.state = StateTranscribing
}

func (l *Loop) transcribe(ctx context.Context) {
	l.status("Transcribing...")
	text, err := l.stt.Transcribe(ctx, l.pcm)
	l.clearStatus()
	l.pcm = nil

	if err != nil {
		fmt.Fprintf(l.cfg.Out, "  Error: %v\n\n", err)
		l.state = StateIdle
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		fmt.Fprint(l.cfg.Out, "  (silence detected)\n\n")
		l.state = StateIdle
		return
	}

	fmt.Fprintf(l.cfg.Out, "  You: %s\n", text)
	l.pending = text
	l.state = StateAwaitingCompletion
}

func (l *Loop) complete(ctx context.Context) {
	l.status("Thinking...")
	reply, err := l.chatter.Chat(ctx, l.pending)
	l.clearStatus()
	l.pending = ""

	if err != nil {
		if errors.Is(err, chat.ErrUnavailable) {
			fmt.Fprint(l.cfg.Out, "  Error: cannot reach the model server. Is it running?\n\n")
		} else {
			fmt.Fprintf(l.cfg.Out, "  Error: %v\n\n", err)
		}
		l.state = StateIdle
		return
	}

	fmt.Fprintf(l.cfg.Out, "  %s: %s\n", l.cfg.Name, reply)
	l.reply = reply
	l.state = StateSpeaking
}

func (l *Loop) speak() {
	l.status("Speaking...")
	err := l.tts.Speak(speech.Normalize(l.reply))
	l.clearStatus()
	l.reply = ""

	if err != nil {
		// Speech output failing never ends the session.
		fmt.Fprintf(l.cfg.Out, "  (speech error: %v)\n", err)
	}

	fmt.Fprintln(l.cfg.Out)
	l.state = StateIdle
}

func (l *Loop) farewell() {
	fmt.Fprint(l.cfg.Out, "\nGoodbye!\n")
}

// status prints a line that the next status or clearStatus overwrites.
func (l *Loop) status(msg string) {
	fmt.Fprintf(l.cfg.Out, "\r  [%s]", msg)
}

func (l *Loop) clearStatus() {
	fmt.Fprintf(l.cfg.Out, "\r%s\r", strings.Repeat(" ", 60))
}
