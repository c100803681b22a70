package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuality(t *testing.T) {
	tests := []struct {
		name    string
		correct bool
		elapsed time.Duration
		want    int
	}{
		{"wrong", false, time.Second, 1},
		{"wrong slow", false, time.Minute, 1},
		{"fast", true, 5 * time.Second, 5},
		{"steady", true, 12 * time.Second, 4},
		{"slow", true, 13 * time.Second, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quality(tt.correct, tt.elapsed))
		})
	}
}

func TestReviewNext_IntervalProgression(t *testing.T) {
	var r Review
	r = r.Next(true, time.Second, t0)
	assert.Equal(t, 1, r.Repetitions)
	assert.Equal(t, 1, r.IntervalDays)
	assert.InDelta(t, 2.6, r.Ease, 1e-9)

	r = r.Next(true, time.Second, t0)
	assert.Equal(t, 2, r.Repetitions)
	assert.Equal(t, 6, r.IntervalDays)
	assert.InDelta(t, 2.7, r.Ease, 1e-9)

	r = r.Next(true, time.Second, t0)
	assert.Equal(t, 3, r.Repetitions)
	// int(6 * 2.8)
	assert.Equal(t, 16, r.IntervalDays)

	require.NotNil(t, r.NextReviewAt)
	assert.Equal(t, t0.AddDate(0, 0, 16), *r.NextReviewAt)
}

func TestReviewNext_WrongResets(t *testing.T) {
	r := Review{Repetitions: 4, IntervalDays: 20, Ease: 2.5}
	r = r.Next(false, time.Second, t0)
	assert.Equal(t, 0, r.Repetitions)
	assert.Equal(t, 1, r.IntervalDays)
	// 2.5 + 0.1 - 4*(0.08+4*0.02)
	assert.InDelta(t, 1.96, r.Ease, 1e-9)
}

func TestReviewNext_EaseFloor(t *testing.T) {
	r := Review{Ease: MinEase}
	for range 5 {
		r = r.Next(false, 0, t0)
	}
	assert.InDelta(t, MinEase, r.Ease, 1e-9)
}

func TestReviewIsDue(t *testing.T) {
	assert.False(t, Review{}.IsDue(t0))
	r := Review{}.Next(true, time.Second, t0)
	assert.False(t, r.IsDue(t0))
	assert.True(t, r.IsDue(t0.AddDate(0, 0, 1)))
}
