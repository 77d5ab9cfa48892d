package fractal

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/lanefrac/internal/errors"
)

func TestViewPoint(t *testing.T) {
	t.Parallel()

	v := View{Center: 0, Span: 4, Width: 4, Height: 2}

	assert.Equal(t, 1.0, v.Step())
	assert.Equal(t, complex(-1.5, 0.5), v.Point(0, 0), "top-left pixel centre")
	assert.Equal(t, complex(1.5, -0.5), v.Point(3, 1), "bottom-right pixel centre")
	assert.Equal(t, 8, v.Pixels())
	assert.Equal(t, 8.0, v.Area())
}

func TestViewPointIsCentred(t *testing.T) {
	t.Parallel()

	v := View{Center: complex(-0.5, 0.25), Span: 2, Width: 101, Height: 51}
	mid := v.Point(50, 25)
	assert.InDelta(t, -0.5, real(mid), 1e-15)
	assert.InDelta(t, 0.25, imag(mid), 1e-15)
}

func TestViewRow(t *testing.T) {
	t.Parallel()

	v := View{Center: 0, Span: 2, Width: 5, Height: 3}
	row := v.Row(1, nil)
	require.Len(t, row, 5)
	for px, z := range row {
		assert.Equal(t, v.Point(px, 1), z)
	}

	buf := make([]complex128, 0, 16)
	reused := v.Row(0, buf)
	assert.Len(t, reused, 5)
	assert.Equal(t, &buf[:1][0], &reused[0], "a large enough buffer is reused")
}

func TestViewValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		view  View
		field string
	}{
		{"valid", DefaultView(), ""},
		{"zero width", View{Span: 1, Width: 0, Height: 1}, "width"},
		{"zero height", View{Span: 1, Width: 1, Height: 0}, "height"},
		{"too large", View{Span: 1, Width: 1 << 14, Height: 1 << 14}, "width*height"},
		{"one over the limit", View{Span: 1, Width: MaxPixels + 1, Height: 1}, "width*height"},
		{"at the limit", View{Span: 1, Width: MaxPixels / 2, Height: 2}, ""},
		{"product wraps to zero", View{Span: 1, Width: 1 << 62, Height: 4}, "width*height"},
		{"product overflows", View{Span: 1, Width: 1 << 32, Height: 1 << 32}, "width*height"},
		{"uint32 sides", View{Span: 1, Width: 0xFFFFFFFF, Height: 0xFFFFFFFF}, "width*height"},
		{"zero span", View{Span: 0, Width: 1, Height: 1}, "span"},
		{"nan span", View{Span: math.NaN(), Width: 1, Height: 1}, "span"},
		{"infinite span", View{Span: math.Inf(1), Width: 1, Height: 1}, "span"},
		{"nan centre", View{Center: complex(math.NaN(), 0), Span: 1, Width: 1, Height: 1}, "center"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.view.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr apperrors.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestViewExceedsPixels(t *testing.T) {
	t.Parallel()

	assert.False(t, View{Width: 10, Height: 10}.ExceedsPixels(100))
	assert.True(t, View{Width: 101, Height: 1}.ExceedsPixels(100))
	assert.True(t, View{Width: 1 << 62, Height: 4}.ExceedsPixels(MaxPixels))
	assert.True(t, View{Width: 4, Height: 1 << 62}.ExceedsPixels(MaxPixels))
	assert.False(t, View{Width: 0, Height: 1 << 62}.ExceedsPixels(MaxPixels))
	assert.False(t, View{Width: -3, Height: -3}.ExceedsPixels(MaxPixels))
}

func TestViewJSON(t *testing.T) {
	t.Parallel()

	v := View{Center: complex(-0.75, 0.1), Span: 0.5, Width: 64, Height: 48}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"center_re":-0.75,"center_im":0.1,"span":0.5,"width":64,"height":48}`, string(data))

	var got View
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, v, got)
}
