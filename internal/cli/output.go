package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/framefile"
	"github.com/agbru/lanefrac/internal/render"
)

// OutputPath returns the file a kernel's frame is written to. When several
// kernels ran, the kernel name is inserted before the extension:
// "out.png" becomes "out-julia.png".
func OutputPath(base, kernel string, multi bool) string {
	if !multi {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + kernel + ext
}

// WriteFrame writes frame to path. The framefile extension selects the raw
// dump compressed with codec; any other extension selects an image format.
// Missing parent directories are created.
func WriteFrame(path string, frame *fractal.Frame, codec framefile.Codec) (err error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if strings.EqualFold(filepath.Ext(path), framefile.Extension) {
		return framefile.Save(path, frame, codec)
	}

	format, err := render.FormatFromPath(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return render.Encode(file, render.Colorize(frame), format)
}
