package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/agbru/lanefrac/internal/fractal"
)

func TestFloatToByte(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want uint8
	}{
		{-1, 0},
		{0, 0},
		{0.5, 127},
		{1, 255},
		{2, 255},
		{math.NaN(), 0},
		{math.Inf(1), 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FloatToByte(tt.in), "FloatToByte(%v)", tt.in)
	}
}

func TestHSVToRGB(t *testing.T) {
	t.Parallel()

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, HSVToRGB(0, 1, 1))
	assert.Equal(t, color.RGBA{0, 255, 255, 255}, HSVToRGB(0.5, 1, 1))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, HSVToRGB(1, 1, 1), "hue wraps")
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, HSVToRGB(0.3, 0, 1))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, HSVToRGB(0.3, 1, 0))
}

func TestEscapeAndRootColor(t *testing.T) {
	t.Parallel()

	black := color.RGBA{A: 255}
	assert.Equal(t, black, EscapeColor(100, 100))
	assert.NotEqual(t, black, EscapeColor(3, 100))
	assert.Equal(t, black, RootColor(complex(math.NaN(), 0), 10, 10))
	assert.NotEqual(t, RootColor(1, 10, 100), RootColor(-1, 10, 100))
}

func testFrame(kind fractal.Kind) *fractal.Frame {
	f := fractal.NewFrame("test", kind, fractal.View{Span: 1, Width: 3, Height: 2}, 10)
	copy(f.Counts, []int64{10, 1, 5, 10, 2, 0})
	f.Values[1] = 1
	f.Values[2] = -1
	return f
}

func TestColorize(t *testing.T) {
	t.Parallel()

	img := Colorize(testFrame(fractal.KindEscape))
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(0, 0), "interior pixel")
	assert.Equal(t, EscapeColor(2, 10), img.RGBAAt(1, 1))

	roots := Colorize(testFrame(fractal.KindRoot))
	assert.Equal(t, RootColor(-1, 5, 10), roots.RGBAAt(2, 0))
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	img := Colorize(testFrame(fractal.KindEscape))
	decoders := map[Format]func(*bytes.Buffer) (image.Image, error){
		FormatPNG:  func(b *bytes.Buffer) (image.Image, error) { return png.Decode(b) },
		FormatBMP:  func(b *bytes.Buffer) (image.Image, error) { return bmp.Decode(b) },
		FormatTIFF: func(b *bytes.Buffer) (image.Image, error) { return tiff.Decode(b) },
	}
	for _, f := range Formats() {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, img, f))
			got, err := decoders[f](&buf)
			require.NoError(t, err)
			assert.Equal(t, img.Bounds(), got.Bounds())
			r, g, b, _ := got.At(1, 1).RGBA()
			want := img.RGBAAt(1, 1)
			assert.Equal(t, uint32(want.R)*0x101, r)
			assert.Equal(t, uint32(want.G)*0x101, g)
			assert.Equal(t, uint32(want.B)*0x101, b)
		})
	}

	assert.Error(t, Encode(&bytes.Buffer{}, img, Format("gif")))
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out.png", FormatPNG, false},
		{"OUT.BMP", FormatBMP, false},
		{"a/b/c.tif", FormatTIFF, false},
		{"frame.tiff", FormatTIFF, false},
		{"frame.jpg", "", true},
		{"frame", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "image/tiff", FormatTIFF.ContentType())
}
