package geometry

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"archpanel/internal/domain"
	"archpanel/internal/infra"
)

// Builder materializes the canonical geometry reference pack for a design.
// Pre-rendered artifacts dropped into the pack directory by an external
// renderer take precedence; anything missing is synthesized as a
// deterministic clay render so the pipeline always has grounding truth.
type Builder struct {
	dir    string
	logger infra.Logger
}

// NewBuilder creates a pack builder rooted at dir.
func NewBuilder(dir string, logger infra.Logger) *Builder {
	return &Builder{dir: dir, logger: logger}
}

// Build renders the full pack for the design. Rendering is local CPU work,
// so unlike backend calls it runs concurrently. The result covers every
// panel type in the design's sequence, not just the required subset, so
// lower-priority control providers can also draw from it.
func (b *Builder) Build(ctx context.Context, spec domain.DesignSpec, fingerprint string) (*domain.GeometryReferencePack, error) {
	pack := &domain.GeometryReferencePack{
		Fingerprint: fingerprint,
		Renders:     make(map[domain.PanelType]domain.PackRender),
		BuiltAt:     time.Now(),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, pt := range domain.PanelSequence(spec.FloorCount) {
		pt := pt
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			render, err := b.renderPanel(spec, fingerprint, pt)
			if err != nil {
				return fmt.Errorf("geometry: render %s: %w", pt, err)
			}
			mu.Lock()
			pack.Renders[pt] = render
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.logger.Debug().
		Str("fingerprint", fingerprint).
		Int("renders", len(pack.Renders)).
		Msg("geometry: built reference pack")
	return pack, nil
}

// IsComplete reports whether an already-built pack covers the required types.
func (b *Builder) IsComplete(pack *domain.GeometryReferencePack, required []domain.PanelType) bool {
	return pack.IsComplete(required)
}

// renderPanel prefers an external render found on disk, then falls back to
// the synthesized passes. External renders replace the clay pass only; the
// mask and depth passes are always derived from the footprint.
func (b *Builder) renderPanel(spec domain.DesignSpec, fingerprint string, pt domain.PanelType) (domain.PackRender, error) {
	render := domain.PackRender{}
	if path, data, ok := b.findExternalRender(fingerprint, pt); ok {
		render.Clay = data
		render.Path = path
	} else {
		clay, err := synthesizeClay(spec, pt)
		if err != nil {
			return domain.PackRender{}, err
		}
		render.Clay = clay
	}

	mask, err := synthesizePass(spec, pt, passMask)
	if err != nil {
		return domain.PackRender{}, err
	}
	depth, err := synthesizePass(spec, pt, passDepth)
	if err != nil {
		return domain.PackRender{}, err
	}
	render.Mask = mask
	render.Depth = depth
	return render, nil
}

// findExternalRender scans the pack directory for renders produced by an
// external geometry renderer. Accepted layouts:
//
//	<dir>/<fingerprint>/<panel>_clay.png
//	<dir>/<fingerprint>/**/<panel>/clay.png
func (b *Builder) findExternalRender(fingerprint string, pt domain.PanelType) (string, []byte, bool) {
	if b.dir == "" {
		return "", nil, false
	}
	root := filepath.Join(b.dir, fingerprint)
	patterns := []string{
		fmt.Sprintf("%s_clay.png", pt),
		fmt.Sprintf("**/%s/clay.png", pt),
	}
	fsys := os.DirFS(root)
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil || len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		full := filepath.Join(root, filepath.FromSlash(matches[0]))
		data, err := os.ReadFile(full)
		if err != nil || len(data) == 0 {
			continue
		}
		return full, data, true
	}
	return "", nil, false
}

type renderPass int

const (
	passClay renderPass = iota
	passMask
	passDepth
)

// synthesizeClay draws the deterministic flat-shaded grounding image for a
// panel: the building mass in neutral gray with floor divisions, scaled to
// the footprint. It encodes the true geometry only, never style.
func synthesizeClay(spec domain.DesignSpec, pt domain.PanelType) ([]byte, error) {
	return synthesizePass(spec, pt, passClay)
}

func synthesizePass(spec domain.DesignSpec, pt domain.PanelType, pass renderPass) ([]byte, error) {
	const w, h = 1024, 1024
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	bg := color.RGBA{235, 235, 235, 255}
	mass := color.RGBA{153, 153, 153, 255}
	line := color.RGBA{90, 90, 90, 255}
	switch pass {
	case passMask:
		// Binary silhouette: white building on black.
		bg = color.RGBA{0, 0, 0, 255}
		mass = color.RGBA{255, 255, 255, 255}
		line = mass
	case passDepth:
		// Near-uniform depth: light mass against a far background.
		bg = color.RGBA{20, 20, 20, 255}
		mass = color.RGBA{200, 200, 200, 255}
		line = color.RGBA{170, 170, 170, 255}
	}
	fill(img, img.Bounds(), bg)

	// Scale the footprint into the frame with a margin.
	scale := 800.0 / maxf(spec.WidthM, spec.DepthM)
	bw := int(spec.WidthM * scale)
	bd := int(spec.DepthM * scale)

	switch {
	case pt.IsTechnicalPanel():
		// Plan-like: footprint rectangle centred in the frame.
		rect := centred(w, h, bw, bd)
		fill(img, rect, mass)
		outline(img, rect, line)
	default:
		// Massing view: front face with one band per storey.
		storeyPx := int(spec.WallHeightM * scale)
		bh := storeyPx * spec.FloorCount
		rect := centred(w, h, bw, bh)
		fill(img, rect, mass)
		outline(img, rect, line)
		for f := 1; f < spec.FloorCount; f++ {
			y := rect.Max.Y - f*storeyPx
			hline(img, rect.Min.X, rect.Max.X, y, line)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func centred(frameW, frameH, w, h int) image.Rectangle {
	x0 := (frameW - w) / 2
	y0 := (frameH - h) / 2
	return image.Rect(x0, y0, x0+w, y0+h)
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func outline(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	hline(img, r.Min.X, r.Max.X, r.Min.Y, c)
	hline(img, r.Min.X, r.Max.X, r.Max.Y-1, c)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

func hline(img *image.RGBA, x0, x1, y int, c color.RGBA) {
	for x := x0; x < x1; x++ {
		img.SetRGBA(x, y, c)
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
