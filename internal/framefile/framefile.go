// Package framefile stores raw frames on disk so they can be recoloured or
// compared later without rendering again.
//
// Layout: the four-byte magic "LFR1", one codec byte, then the compressed
// payload. The payload is little-endian: a fixed header, the kernel name,
// Width*Height int64 counts and Width*Height complex128 values.
package framefile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/agbru/lanefrac/internal/fractal"
)

// Extension is the file extension that selects the raw frame format.
const Extension = ".lfr"

var magic = [4]byte{'L', 'F', 'R', '1'}

// ErrBadMagic is returned when the input is not a frame file.
var ErrBadMagic = errors.New("framefile: bad magic")

// Codec selects the payload compression.
type Codec uint8

const (
	// CodecZstd favours ratio. It is the default.
	CodecZstd Codec = 1
	// CodecLZ4 favours speed.
	CodecLZ4 Codec = 2
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec maps "zstd" or "lz4" to a Codec. The empty string selects zstd.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return 0, fmt.Errorf("framefile: unknown codec %q", s)
	}
}

type header struct {
	Kind             uint8
	_                [3]byte
	Width            uint32
	Height           uint32
	MaxIters         uint32
	CenterRe         float64
	CenterIm         float64
	Span             float64
	Batches          int64
	Bursts           int64
	ConvergedBatches int64
	NameLen          uint16
	_                [6]byte
}

// Write encodes f to w using codec c.
func Write(w io.Writer, f *fractal.Frame, c Codec) error {
	if c != CodecZstd && c != CodecLZ4 {
		return fmt.Errorf("framefile: unknown codec %v", c)
	}
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(c)}); err != nil {
		return err
	}

	var (
		cw  io.WriteCloser
		err error
	)
	switch c {
	case CodecZstd:
		cw, err = zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("framefile: zstd writer: %w", err)
		}
	default:
		cw = lz4.NewWriter(w)
	}

	bw := bufio.NewWriter(cw)
	if err := writePayload(bw, f); err != nil {
		cw.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		cw.Close()
		return err
	}
	return cw.Close()
}

func writePayload(w io.Writer, f *fractal.Frame) error {
	if len(f.Counts) != f.View.Pixels() || len(f.Values) != f.View.Pixels() {
		return fmt.Errorf("framefile: frame buffers do not match a %dx%d view", f.View.Width, f.View.Height)
	}
	if len(f.Kernel) > math.MaxUint16 {
		return fmt.Errorf("framefile: kernel name too long")
	}
	if f.MaxIters < 0 || uint64(f.MaxIters) > math.MaxUint32 {
		return fmt.Errorf("framefile: max iters %d does not fit the header", f.MaxIters)
	}
	h := header{
		Kind:             uint8(f.Kind),
		Width:            uint32(f.View.Width),
		Height:           uint32(f.View.Height),
		MaxIters:         uint32(f.MaxIters),
		CenterRe:         real(f.View.Center),
		CenterIm:         imag(f.View.Center),
		Span:             f.View.Span,
		Batches:          f.Batches,
		Bursts:           f.Bursts,
		ConvergedBatches: f.ConvergedBatches,
		NameLen:          uint16(len(f.Kernel)),
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}
	if _, err := io.WriteString(w, f.Kernel); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, f.Counts); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, f.Values)
}

// Read decodes a frame written by Write.
func Read(r io.Reader) (*fractal.Frame, error) {
	var prefix [5]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("framefile: reading header: %w", err)
	}
	if [4]byte(prefix[:4]) != magic {
		return nil, ErrBadMagic
	}

	var payload io.Reader
	switch c := Codec(prefix[4]); c {
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("framefile: zstd reader: %w", err)
		}
		defer dec.Close()
		payload = dec
	case CodecLZ4:
		payload = lz4.NewReader(r)
	default:
		return nil, fmt.Errorf("framefile: unknown codec %v", c)
	}
	return readPayload(bufio.NewReader(payload))
}

func readPayload(r io.Reader) (*fractal.Frame, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("framefile: reading frame header: %w", err)
	}
	view := fractal.View{
		Center: complex(h.CenterRe, h.CenterIm),
		Span:   h.Span,
		Width:  int(h.Width),
		Height: int(h.Height),
	}
	if err := view.Validate(); err != nil {
		return nil, fmt.Errorf("framefile: corrupt view: %w", err)
	}

	name := make([]byte, h.NameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("framefile: reading kernel name: %w", err)
	}

	f := fractal.NewFrame(string(name), fractal.Kind(h.Kind), view, int(h.MaxIters))
	f.Batches = h.Batches
	f.Bursts = h.Bursts
	f.ConvergedBatches = h.ConvergedBatches
	if err := binary.Read(r, binary.LittleEndian, f.Counts); err != nil {
		return nil, fmt.Errorf("framefile: reading counts: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, f.Values); err != nil {
		return nil, fmt.Errorf("framefile: reading values: %w", err)
	}
	return f, nil
}

// Save writes f to path.
func Save(path string, f *fractal.Frame, c Codec) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(file, f, c)
}

// Load reads a frame from path.
func Load(path string) (*fractal.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file)
}
