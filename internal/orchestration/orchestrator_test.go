package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/lanefrac/internal/cli"
	"github.com/agbru/lanefrac/internal/config"
	apperrors "github.com/agbru/lanefrac/internal/errors"
	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/ui"
)

// MockKernel returns a canned frame or error and records what it was asked
// to render.
type MockKernel struct {
	name       string
	err        error
	delay      time.Duration
	gotView    fractal.View
	gotOptions fractal.Options
}

func (m *MockKernel) Name() string       { return m.name }
func (m *MockKernel) Kind() fractal.Kind { return fractal.KindEscape }

func (m *MockKernel) Render(ctx context.Context, progressChan chan<- fractal.ProgressUpdate, index int, view fractal.View, opts fractal.Options) (*fractal.Frame, error) {
	m.gotView, m.gotOptions = view, opts
	if progressChan != nil {
		progressChan <- fractal.ProgressUpdate{KernelIndex: index, Value: 1}
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return fractal.NewFrame(m.name, fractal.KindEscape, view, opts.MaxIters), nil
}

func testConfig() config.AppConfig {
	return config.AppConfig{
		Kernel: "all", Width: 16, Height: 8, CenterRe: -0.5, Span: 3,
		MaxIters: 32, Burst: 5, MacroIters: 7, Tolerance: 1e-9,
		Polynomial: "-1,0,1", JuliaRe: 0.3, Workers: 2,
		Timeout: time.Minute, Codec: "zstd",
	}
}

func TestExecuteRendersPassesConfig(t *testing.T) {
	t.Parallel()
	spy := &MockKernel{name: "spy"}
	results := ExecuteRenders(context.Background(), []fractal.Kernel{spy}, testConfig(), io.Discard)

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "spy", results[0].Name)
	assert.Equal(t, fractal.View{Center: -0.5, Span: 3, Width: 16, Height: 8}, spy.gotView)
	assert.Equal(t, 32, spy.gotOptions.MaxIters)
	assert.Equal(t, 5, spy.gotOptions.Newton.Burst)
	assert.Equal(t, 7, spy.gotOptions.Newton.MacroIters)
	assert.Equal(t, "z^2 - 1", spy.gotOptions.Polynomial.String())
	assert.Equal(t, complex(0.3, 0), spy.gotOptions.JuliaC)
	assert.Equal(t, 2, spy.gotOptions.Workers)
}

func TestExecuteRendersKeepsOrderAndWrapsErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	kernels := []fractal.Kernel{
		&MockKernel{name: "a", delay: 20 * time.Millisecond},
		&MockKernel{name: "b", err: boom},
		&MockKernel{name: "c"},
	}
	results := ExecuteRenders(context.Background(), kernels, testConfig(), io.Discard)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Name)
	assert.NoError(t, results[0].Err, "a failing sibling does not cancel the others")
	assert.NotNil(t, results[0].Frame)

	var renderErr apperrors.RenderError
	require.True(t, errors.As(results[1].Err, &renderErr))
	assert.Equal(t, "b", renderErr.Kernel)
	assert.True(t, errors.Is(results[1].Err, boom))
}

func TestExecuteRendersBadPolynomial(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Polynomial = "x"
	results := ExecuteRenders(context.Background(), []fractal.Kernel{&MockKernel{name: "n"}}, cfg, io.Discard)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestExecuteRendersTimeout(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	results := ExecuteRenders(ctx, []fractal.Kernel{&MockKernel{name: "slow", delay: time.Minute}}, testConfig(), io.Discard)
	assert.True(t, errors.Is(results[0].Err, context.DeadlineExceeded))
	assert.Equal(t, apperrors.ExitErrorTimeout, AnalyzeResults(results, testConfig(), io.Discard))
}

func TestExecuteRendersRealKernels(t *testing.T) {
	t.Parallel()
	factory := fractal.NewDefaultFactory()
	kernels := cli.GetKernelsToRun(testConfig(), factory)
	results := ExecuteRenders(context.Background(), kernels, testConfig(), io.Discard)
	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Err, r.Name)
		assert.Equal(t, r.Name, r.Frame.Kernel)
		assert.Len(t, r.Frame.Counts, 16*8)
	}
}

func TestAnalyzeResults(t *testing.T) {
	defer ui.SetCurrentTheme(ui.GetCurrentTheme())
	ui.SetCurrentTheme(ui.NoColorTheme)

	view := fractal.View{Span: 1, Width: 2, Height: 2}
	ok := RenderResult{Name: "julia", Frame: fractal.NewFrame("julia", fractal.KindEscape, view, 10), Duration: time.Millisecond}
	failed := RenderResult{Name: "newton", Err: apperrors.NewRenderError("newton", errors.New("boom")), Duration: 2 * time.Millisecond}
	canceled := RenderResult{Name: "mandelbrot", Err: apperrors.NewRenderError("mandelbrot", context.Canceled), Duration: time.Millisecond}

	tests := []struct {
		name     string
		results  []RenderResult
		want     int
		contains []string
	}{
		{"all ok", []RenderResult{ok}, apperrors.ExitSuccess, []string{"Render Summary", "julia", "Success", "All kernels completed"}},
		{"one failure", []RenderResult{failed, ok}, apperrors.ExitErrorGeneric, []string{"Failure (kernel newton: boom)", "Global Status: Failure."}},
		{"canceled first", []RenderResult{failed, canceled}, apperrors.ExitErrorCanceled, []string{"Status: Canceled"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := AnalyzeResults(append([]RenderResult(nil), tt.results...), config.AppConfig{}, &out)
			assert.Equal(t, tt.want, code)
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestAnalyzeResultsJSONAndQuiet(t *testing.T) {
	t.Parallel()
	view := fractal.View{Span: 1, Width: 4, Height: 2}
	results := []RenderResult{
		{Name: "newton", Err: apperrors.NewRenderError("newton", context.DeadlineExceeded)},
		{Name: "julia", Frame: fractal.NewFrame("julia", fractal.KindEscape, view, 10)},
	}

	var out bytes.Buffer
	code := AnalyzeResults(results, config.AppConfig{JSONOutput: true}, &out)
	assert.Equal(t, apperrors.ExitErrorTimeout, code)
	var summaries []cli.FrameSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "julia", summaries[0].Kernel, "successes sort first")
	assert.Equal(t, 8, summaries[0].Stats.Pixels)
	assert.NotEmpty(t, summaries[1].Error)

	out.Reset()
	code = AnalyzeResults(results, config.AppConfig{Quiet: true}, &out)
	assert.Equal(t, apperrors.ExitErrorTimeout, code)
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
	assert.True(t, strings.HasPrefix(out.String(), "julia\t8\t"))
}

func TestWriteOutputs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	view := fractal.View{Span: 1, Width: 4, Height: 2}
	results := []RenderResult{
		{Name: "julia", Frame: fractal.NewFrame("julia", fractal.KindEscape, view, 10)},
		{Name: "newton", Frame: fractal.NewFrame("newton", fractal.KindRoot, view, 10)},
		{Name: "mandelbrot", Err: errors.New("skipped")},
	}
	cfg := config.AppConfig{Output: filepath.Join(dir, "out.bmp"), Codec: "zstd", Quiet: true}

	require.NoError(t, WriteOutputs(results, cfg, io.Discard))
	assert.FileExists(t, filepath.Join(dir, "out-julia.bmp"))
	assert.FileExists(t, filepath.Join(dir, "out-newton.bmp"))
	assert.NoFileExists(t, filepath.Join(dir, "out-mandelbrot.bmp"))

	require.NoError(t, WriteOutputs(results[:1], config.AppConfig{Output: filepath.Join(dir, "single.lfr"), Codec: "lz4"}, io.Discard))
	assert.FileExists(t, filepath.Join(dir, "single.lfr"))

	assert.NoError(t, WriteOutputs(results, config.AppConfig{}, io.Discard))
}
