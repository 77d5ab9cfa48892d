package fractal

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ChannelObserver forwards progress to a channel, typically the one read by
// the CLI progress display.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver creates an observer that sends updates to ch. A nil
// channel discards updates.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update sends without blocking. When the channel is full the update is
// dropped; the next one supersedes it anyway.
func (o *ChannelObserver) Update(kernelIndex int, progress float64) {
	if o.channel == nil {
		return
	}
	if progress > 1.0 {
		progress = 1.0
	}

	select {
	case o.channel <- ProgressUpdate{KernelIndex: kernelIndex, Value: progress}:
	default:
	}
}

// LoggingObserver writes progress to zerolog at debug level, at most once
// per threshold step per kernel.
type LoggingObserver struct {
	logger    zerolog.Logger
	threshold float64
	lastLog   map[int]float64
	mu        sync.Mutex
}

// NewLoggingObserver creates a throttled logging observer. A non-positive
// threshold defaults to 0.1.
func NewLoggingObserver(logger zerolog.Logger, threshold float64) *LoggingObserver {
	if threshold <= 0 {
		threshold = 0.1
	}
	return &LoggingObserver{
		logger:    logger,
		threshold: threshold,
		lastLog:   make(map[int]float64),
	}
}

// Update logs the first event, every threshold step and completion.
func (o *LoggingObserver) Update(kernelIndex int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	last, seen := o.lastLog[kernelIndex]
	shouldLog := progress >= 1.0 ||
		!seen && progress > 0 ||
		progress-last >= o.threshold

	if shouldLog {
		o.logger.Debug().
			Int("kernel", kernelIndex).
			Float64("progress", progress).
			Str("percent", fmt.Sprintf("%.1f%%", progress*100)).
			Msg("render progress")
		o.lastLog[kernelIndex] = progress
	}
}

var progressGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "lanefrac_render_progress",
		Help: "Fraction of rows rendered by each running kernel (0.0 to 1.0)",
	},
	[]string{"kernel_index"},
)

// MetricsObserver exports progress as a Prometheus gauge.
type MetricsObserver struct {
	gauge *prometheus.GaugeVec
}

// NewMetricsObserver returns an observer backed by the shared progress
// gauge.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{gauge: progressGauge}
}

// Update sets the gauge for kernelIndex.
func (o *MetricsObserver) Update(kernelIndex int, progress float64) {
	o.gauge.WithLabelValues(strconv.Itoa(kernelIndex)).Set(progress)
}

// ResetMetrics clears the gauge before a new batch of renders.
func (o *MetricsObserver) ResetMetrics() {
	o.gauge.Reset()
}

// NoOpObserver discards all updates.
type NoOpObserver struct{}

// NewNoOpObserver returns a NoOpObserver.
func NewNoOpObserver() *NoOpObserver {
	return &NoOpObserver{}
}

// Update does nothing.
func (o *NoOpObserver) Update(int, float64) {}
