package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/chat"
)

type scriptedKeys struct {
	keys []byte
	pos  int
}

func (s *scriptedKeys) ReadKey() (byte, error) {
	if s.pos >= len(s.keys) {
		return 0, io.EOF
	}
	k := s.keys[s.pos]
	s.pos++
	return k, nil
}

type fakeRecorder struct {
	pcm      []float32
	startErr error
	stopErr  error
	starts   int
}

func (f *fakeRecorder) Start() error { f.starts++; return f.startErr }
func (f *fakeRecorder) Stop() ([]float32, error) {
	return f.pcm, f.stopErr
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, pcm []float32) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeChatter struct {
	reply  string
	err    error
	seen   []string
	resets int
}

func (f *fakeChatter) Chat(_ context.Context, msg string) (string, error) {
	f.seen = append(f.seen, msg)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
func (f *fakeChatter) Reset() { f.resets++ }

type fakeSpeaker struct {
	err    error
	spoken []string
}

func (f *fakeSpeaker) Speak(text string) error {
	f.spoken = append(f.spoken, text)
	return f.err
}

func samples(n int) []float32 { return make([]float32, n) }

func newTestLoop(keys []byte, rec *fakeRecorder, stt *fakeTranscriber, ch *fakeChatter, sp *fakeSpeaker) (*Loop, *bytes.Buffer) {
	out := &bytes.Buffer{}
	l := New(Config{SampleRate: 16000, Out: out}, &scriptedKeys{keys: keys}, rec, stt, ch, sp)
	return l, out
}

func TestQuitKeySaysGoodbye(t *testing.T) {
	l, out := newTestLoop([]byte{'q'}, &fakeRecorder{}, &fakeTranscriber{}, &fakeChatter{}, &fakeSpeaker{})

	require.NoError(t, l.Run(context.Background()))

	assert.Equal(t, StateStopped, l.State())
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestExhaustedInputStopsLoop(t *testing.T) {
	l, _ := newTestLoop(nil, &fakeRecorder{}, &fakeTranscriber{}, &fakeChatter{}, &fakeSpeaker{})

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, StateStopped, l.State())
}

func TestFullTurn(t *testing.T) {
	rec := &fakeRecorder{pcm: samples(16000)}
	stt := &fakeTranscriber{text: "What is 2+2?"}
	ch := &fakeChatter{reply: "Four!"}
	sp := &fakeSpeaker{}

	l, out := newTestLoop([]byte{' ', ' ', 'q'}, rec, stt, ch, sp)
	require.NoError(t, l.Run(context.Background()))

	assert.Equal(t, []string{"What is 2+2?"}, ch.seen)
	assert.Equal(t, []string{"Four!"}, sp.spoken)
	assert.Contains(t, out.String(), "You: What is 2+2?")
	assert.Contains(t, out.String(), "Parley: Four!")
}

func TestReplyIsNormalizedBeforeSpeaking(t *testing.T) {
	rec := &fakeRecorder{pcm: samples(16000)}
	ch := &fakeChatter{reply: "**Great** question! 😊"}
	sp := &fakeSpeaker{}

	l, _ := newTestLoop([]byte{' ', ' ', 'q'}, rec, &fakeTranscriber{text: "hi"}, ch, sp)
	require.NoError(t, l.Run(context.Background()))

	require.Len(t, sp.spoken, 1)
	assert.Equal(t, "Great question!", sp.spoken[0])
}

func TestZeroSampleCaptureSkipsTranscription(t *testing.T) {
	rec := &fakeRecorder{pcm: nil}
	stt := &fakeTranscriber{}

	l, out := newTestLoop([]byte{' ', ' ', 'q'}, rec, stt, &fakeChatter{}, &fakeSpeaker{})
	require.NoError(t, l.Run(context.Background()))

	assert.Zero(t, stt.calls)
	assert.Contains(t, out.String(), "(no audio captured)")
}

func TestShortCaptureSkipsTranscription(t *testing.T) {
	rec := &fakeRecorder{pcm: samples(1600)} // 0.1s, below the 0.3s floor
	stt := &fakeTranscriber{}

	l, out := newTestLoop([]byte{' ', ' ', 'q'}, rec, stt, &fakeChatter{}, &fakeSpeaker{})
	require.NoError(t, l.Run(context.Background()))

	assert.Zero(t, stt.calls)
	assert.Contains(t, out.String(), "(too short, skipped)")
}

func TestSilentTranscriptSkipsCompletion(t *testing.T) {
	rec := &fakeRecorder{pcm: samples(16000)}
	stt := &fakeTranscriber{text: "   "}
	ch := &fakeChatter{}

	l, out := newTestLoop([]byte{' ', ' ', 'q'}, rec, stt, ch, &fakeSpeaker{})
	require.NoError(t, l.Run(context.Background()))

	assert.Empty(t, ch.seen)
	assert.Contains(t, out.String(), "(silence detected)")
}

func TestUnavailableServiceReportsAndRecovers(t *testing.T) {
	rec := &fakeRecorder{pcm: samples(16000)}
	ch := &fakeChatter{err: fmt.Errorf("%w: connect: connection refused", chat.ErrUnavailable)}
	sp := &fakeSpeaker{}

	l, out := newTestLoop([]byte{' ', ' ', 'q'}, rec, &fakeTranscriber{text: "hi"}, ch, sp)
	require.NoError(t, l.Run(context.Background()))

	assert.Empty(t, sp.spoken)
	assert.Contains(t, out.String(), "cannot reach the model server")
	assert.Equal(t, StateStopped, l.State()) // loop kept going until quit
}

func TestOtherChatErrorsAreReportedVerbatim(t *testing.T) {
	rec := &fakeRecorder{pcm: samples(16000)}
	ch := &fakeChatter{err: errors.New("model exploded")}

	l, out := newTestLoop([]byte{' ', ' ', 'q'}, rec, &fakeTranscriber{text: "hi"}, ch, &fakeSpeaker{})
	require.NoError(t, l.Run(context.Background()))

	assert.Contains(t, out.String(), "model exploded")
	assert.NotContains(t, out.String(), "cannot reach")
}

func TestSpeechFailureIsNonFatal(t *testing.T) {
	rec := &fakeRecorder{pcm: samples(16000)}
	ch := &fakeChatter{reply: "ok"}
	sp := &fakeSpeaker{err: errors.New("no audio device")}

	// Two full turns despite the speaker failing each time.
	l, out := newTestLoop([]byte{' ', ' ', ' ', ' ', 'q'}, rec, &fakeTranscriber{text: "hi"}, ch, sp)
	require.NoError(t, l.Run(context.Background()))

	assert.Len(t, ch.seen, 2)
	assert.Contains(t, out.String(), "(speech error: no audio device)")
}

func TestRecorderStartFailureStaysIdle(t *testing.T) {
	rec := &fakeRecorder{startErr: errors.New("no input device")}
	stt := &fakeTranscriber{}

	l, out := newTestLoop([]byte{' ', 'q'}, rec, stt, &fakeChatter{}, &fakeSpeaker{})
	require.NoError(t, l.Run(context.Background()))

	assert.Zero(t, stt.calls)
	assert.Contains(t, out.String(), "no input device")
}

func TestResetKeyClearsConversation(t *testing.T) {
	ch := &fakeChatter{}

	l, out := newTestLoop([]byte{'r', 'q'}, &fakeRecorder{}, &fakeTranscriber{}, ch, &fakeSpeaker{})
	require.NoError(t, l.Run(context.Background()))

	assert.Equal(t, 1, ch.resets)
	assert.Contains(t, out.String(), "(conversation reset)")
}

func TestCueAndCaptureHooks(t *testing.T) {
	rec := &fakeRecorder{pcm: samples(16000)}
	var cued bool
	var captured []float32

	out := &bytes.Buffer{}
	l := New(Config{
		SampleRate: 16000,
		Out:        out,
		Cue:        func() { cued = true },
		OnCapture:  func(pcm []float32) { captured = pcm },
	}, &scriptedKeys{keys: []byte{' ', ' ', 'q'}}, rec, &fakeTranscriber{text: "hi"}, &fakeChatter{reply: "ok"}, &fakeSpeaker{})

	require.NoError(t, l.Run(context.Background()))

	assert.True(t, cued)
	assert.Len(t, captured, 16000)
}

func TestCancelledContextEndsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l, out := newTestLoop([]byte{' '}, &fakeRecorder{}, &fakeTranscriber{}, &fakeChatter{}, &fakeSpeaker{})
	err := l.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out.String(), "Goodbye!")
}
