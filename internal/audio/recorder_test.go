package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiagnoseEmptyCapture(t *testing.T) {
	d := Diagnose(nil, 16000)

	assert.Equal(t, time.Duration(0), d.Duration)
	assert.True(t, d.Silent)
}

func TestDiagnoseDurationAndPeak(t *testing.T) {
	pcm := make([]float32, 8000) // half a second at 16 kHz
	pcm[100] = -0.7
	pcm[200] = 0.3

	d := Diagnose(pcm, 16000)

	assert.Equal(t, 500*time.Millisecond, d.Duration)
	assert.InDelta(t, 0.7, d.Peak, 1e-6)
	assert.False(t, d.Silent)
}

func TestDiagnoseSilenceHeuristic(t *testing.T) {
	pcm := make([]float32, 16000)
	for i := range pcm {
		pcm[i] = 0.0005
	}

	assert.True(t, Diagnose(pcm, 16000).Silent)
}

func TestStopBeforeStart(t *testing.T) {
	r := NewRecorder(16000)

	pcm, err := r.Stop()

	assert.NoError(t, err)
	assert.Empty(t, pcm)
}
