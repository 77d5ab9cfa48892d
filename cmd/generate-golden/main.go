package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// GoldenCase is one escape-time reference point.
type GoldenCase struct {
	CRe   float64 `json:"c_re"`
	CIm   float64 `json:"c_im"`
	Count int64   `json:"count"`
	ZRe   float64 `json:"z_re"`
	ZIm   float64 `json:"z_im"`
}

// GoldenData is the file layout read by the fractal package tests.
type GoldenData struct {
	MaxIters int          `json:"max_iters"`
	Cases    []GoldenCase `json:"cases"`
}

func main() {
	outputDir := flag.String("out", "internal/fractal/testdata", "Output directory for the golden file")
	maxIters := flag.Int("max-iters", 100, "Iteration budget per point")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "escape_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// A grid across the set and its surroundings, plus a few points near
	// the boundary that take many steps to decide.
	var points []complex128
	for _, re := range []float64{-2, -1.75, -1.5, -1, -0.75, -0.5, 0, 0.25, 0.3, 0.5, 1, 2} {
		for _, im := range []float64{0, 0.25, 0.5, 1} {
			points = append(points, complex(re, im))
		}
	}
	points = append(points, complex(-0.1, 0.651), complex(-0.7435, 0.1314), complex(0.285, 0.01), complex(-1.25, 0))

	data := GoldenData{MaxIters: *maxIters}
	fmt.Println("Generating golden data...")
	for _, c := range points {
		z, count := escape(c, *maxIters)
		data.Cases = append(data.Cases, GoldenCase{
			CRe:   real(c),
			CIm:   imag(c),
			Count: count,
			ZRe:   real(z),
			ZIm:   imag(z),
		})
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated %d cases at %s\n", len(data.Cases), filename)
}

// escape iterates z = z*z + c one point at a time. It rounds exactly like
// the lane kernel: the same fused multiply-add chain and the same >= 4
// escape test, checked before each step.
func escape(c complex128, maxIters int) (complex128, int64) {
	var re, im float64
	var count int64
	for range maxIters {
		if math.FMA(im, im, re*re) >= 4 {
			break
		}
		count++
		re, im = math.FMA(im, -im, math.FMA(re, re, real(c))),
			math.FMA(re, im, math.FMA(im, re, imag(c)))
	}
	return complex(re, im), count
}
