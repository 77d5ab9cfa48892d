package calibration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchBatches(t *testing.T) {
	t.Parallel()

	batches := benchBatches(100)
	require.Len(t, batches, 100)
	assert.NotEqual(t, batches[0], batches[40], "batches come from different rows")
}

func TestAnalyzeTimings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		timings   []candidateTiming
		wantBurst int
		wantConf  float64
	}{
		{
			name:      "nothing ran",
			timings:   []candidateTiming{{burst: 4}, {burst: 10}},
			wantBurst: 10,
			wantConf:  0,
		},
		{
			name: "clear winner, complete",
			timings: []candidateTiming{
				{burst: 4, best: 200 * time.Microsecond, runs: 3},
				{burst: 10, best: 100 * time.Microsecond, runs: 3},
				{burst: 25, best: 150 * time.Microsecond, runs: 3},
			},
			wantBurst: 10,
			wantConf:  1,
		},
		{
			name: "close race",
			timings: []candidateTiming{
				{burst: 4, best: 101 * time.Microsecond, runs: 3},
				{burst: 10, best: 100 * time.Microsecond, runs: 3},
			},
			wantBurst: 10,
			wantConf:  0.75,
		},
		{
			name: "cut short",
			timings: []candidateTiming{
				{burst: 4, best: 50 * time.Microsecond, runs: 1},
				{burst: 10},
			},
			wantBurst: 4,
			wantConf:  0.75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := analyzeTimings(tt.timings, 3)
			assert.Equal(t, tt.wantBurst, got.Burst)
			assert.Equal(t, MacroItersFor(tt.wantBurst), got.MacroIters)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-12)
		})
	}
}

func TestQuickCalibrate(t *testing.T) {
	t.Parallel()

	res, err := QuickCalibrate(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Burst, 1)
	assert.GreaterOrEqual(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, 1.0)
	assert.True(t, res.Duration > 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err = QuickCalibrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Confidence, "a canceled run measures nothing")
}
