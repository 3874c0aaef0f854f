package validate

import (
	"bytes"
	"fmt"
	"image"
	"math"

	_ "image/jpeg"
	_ "image/png"
)

// thumbSize is the downsample grid used for comparisons. Coarse on purpose:
// the metric must flag structural divergence (wrong massing, extra storeys)
// while staying blind to texture and lighting differences.
const thumbSize = 32

// thumbnail reduces an encoded image to a normalized grayscale grid.
func thumbnail(data []byte) ([thumbSize * thumbSize]float64, error) {
	var grid [thumbSize * thumbSize]float64
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return grid, fmt.Errorf("validate: decode image: %w", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return grid, fmt.Errorf("validate: empty image")
	}
	for gy := 0; gy < thumbSize; gy++ {
		for gx := 0; gx < thumbSize; gx++ {
			// Sample the centre of each cell; averaging whole cells buys
			// little at this grid size.
			sx := bounds.Min.X + (gx*w+w/2)/thumbSize
			sy := bounds.Min.Y + (gy*h+h/2)/thumbSize
			r, g, b, _ := img.At(sx, sy).RGBA()
			gray := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
			grid[gy*thumbSize+gx] = gray
		}
	}
	return grid, nil
}

// DiffRatio computes the mean absolute luminance difference between two
// encoded images on the downsample grid. 0 means identical, 1 means
// maximally different.
func DiffRatio(a, b []byte) (float64, error) {
	ga, err := thumbnail(a)
	if err != nil {
		return 0, err
	}
	gb, err := thumbnail(b)
	if err != nil {
		return 0, err
	}
	var total float64
	for i := range ga {
		total += math.Abs(ga[i] - gb[i])
	}
	return total / float64(len(ga)), nil
}

// Similarity is the complement of DiffRatio, clamped to [0, 1].
func Similarity(a, b []byte) (float64, error) {
	diff, err := DiffRatio(a, b)
	if err != nil {
		return 0, err
	}
	s := 1 - diff
	if s < 0 {
		s = 0
	}
	return s, nil
}
