package fractal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var (
	rendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanefrac_renders_total",
			Help: "The total number of frames rendered",
		},
		[]string{"kernel", "status"},
	)
	renderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "lanefrac_render_duration_seconds",
			Help: "The duration of frame renders in seconds",
		},
		[]string{"kernel"},
	)
	pixelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanefrac_pixels_total",
			Help: "The total number of pixels rendered",
		},
		[]string{"kernel"},
	)
)

// Kernel is the public interface of a fractal renderer. Implementations are
// safe for concurrent use.
type Kernel interface {
	// Render computes a frame for view. Progress is sent to progressChan
	// (which may be nil) tagged with index. Cancelling ctx stops the render
	// between rows and returns the context error.
	Render(ctx context.Context, progressChan chan<- ProgressUpdate, index int, view View, opts Options) (*Frame, error)

	// Name returns the registry name of the kernel.
	Name() string

	// Kind tells how the frame's data is laid out.
	Kind() Kind
}

// FrameKernel decorates a core algorithm with tracing, metrics, logging,
// progress reporting and the concurrent row scheduler.
type FrameKernel struct {
	core coreKernel
}

// NewKernel wraps core. It panics if core is nil.
func NewKernel(core coreKernel) Kernel {
	if core == nil {
		panic("fractal: the `coreKernel` implementation cannot be nil")
	}
	return &FrameKernel{core: core}
}

// Name delegates to the core.
func (k *FrameKernel) Name() string {
	return k.core.Name()
}

// Kind delegates to the core.
func (k *FrameKernel) Kind() Kind {
	return k.core.Kind()
}

// Render implements Kernel using a subject with a single ChannelObserver.
func (k *FrameKernel) Render(ctx context.Context, progressChan chan<- ProgressUpdate, index int, view View, opts Options) (*Frame, error) {
	subject := NewProgressSubject()
	if progressChan != nil {
		subject.Register(NewChannelObserver(progressChan))
	}
	return k.RenderWithObservers(ctx, subject, index, view, opts)
}

// RenderWithObservers renders view and notifies the observers of subject
// after every row. A nil subject disables progress reporting.
func (k *FrameKernel) RenderWithObservers(ctx context.Context, subject *ProgressSubject, index int, view View, opts Options) (frame *Frame, err error) {
	name := k.core.Name()
	ctx, span := otel.Tracer("fractal").Start(ctx, "Render")
	span.SetAttributes(
		attribute.String("kernel", name),
		attribute.Int("width", view.Width),
		attribute.Int("height", view.Height),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			pixelsTotal.WithLabelValues(name).Add(float64(view.Pixels()))
		}
		rendersTotal.WithLabelValues(name, status).Inc()
		renderDuration.WithLabelValues(name).Observe(duration)

		log.Debug().
			Str("kernel", name).
			Int("width", view.Width).
			Int("height", view.Height).
			Float64("duration", duration).
			Str("status", status).
			Msg("render completed")
	}()

	if err = view.Validate(); err != nil {
		return nil, err
	}
	if err = opts.Validate(); err != nil {
		return nil, err
	}
	opts = normalizeOptions(opts)

	reporter := ProgressReporter(func(float64) {})
	if subject != nil {
		reporter = subject.AsProgressReporter(index)
	}

	frame = NewFrame(name, k.core.Kind(), view, opts.MaxIters)
	tally, err := renderRows(ctx, k.core.prepare(opts), view, frame, opts.Workers, reporter)
	if err != nil {
		return nil, err
	}
	frame.Batches = tally.batches
	frame.Bursts = tally.bursts
	frame.ConvergedBatches = tally.converged
	reporter(1.0)
	return frame, nil
}

var rowPool = sync.Pool{
	New: func() any {
		buf := make([]complex128, 0, 1024)
		return &buf
	},
}

// renderRows schedules one task per row on a bounded errgroup. Each task
// writes a disjoint slice of the frame. The context is checked before every
// row, never inside a batch.
func renderRows(ctx context.Context, fn batchFunc, view View, frame *Frame, workers int, reporter ProgressReporter) (batchTally, error) {
	var (
		batches   atomic.Int64
		bursts    atomic.Int64
		converged atomic.Int64
		rowsDone  atomic.Int64
	)
	total := float64(view.Height)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for py := range view.Height {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bufp := rowPool.Get().(*[]complex128)
			row := view.Row(py, *bufp)
			off := py * view.Width
			t := renderPoints(fn, row, frame.Counts[off:off+view.Width], frame.Values[off:off+view.Width])
			*bufp = row[:0]
			rowPool.Put(bufp)

			batches.Add(t.batches)
			bursts.Add(t.bursts)
			converged.Add(t.converged)
			reporter(float64(rowsDone.Add(1)) / total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return batchTally{}, err
	}
	// The loop may have stopped early without any task observing the
	// cancellation.
	if err := ctx.Err(); err != nil {
		return batchTally{}, err
	}
	return batchTally{batches: batches.Load(), bursts: bursts.Load(), converged: converged.Load()}, nil
}
