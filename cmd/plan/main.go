// Command plan previews the panel plan for a design document without
// touching the database or the synthesis backend. It is the fastest way to
// check what a submission would generate: panel order, seeds, dimensions,
// and which control source grounds each panel.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"archpanel/internal/control"
	"archpanel/internal/domain"
	"archpanel/internal/domain/designcfg"
	"archpanel/internal/geometry"
	"archpanel/internal/infra"
	"archpanel/internal/plan"
)

type panelPreview struct {
	PanelType     domain.PanelType         `json:"panel_type"`
	Width         int                      `json:"width"`
	Height        int                      `json:"height"`
	Seed          int                      `json:"seed"`
	ControlSource domain.ControlSourceType `json:"control_source"`
	Strength      float64                  `json:"strength,omitempty"`
}

type planPreview struct {
	Fingerprint string         `json:"fingerprint"`
	FloorCount  int            `json:"floor_count"`
	BaseSeed    int            `json:"base_seed"`
	Panels      []panelPreview `json:"panels"`
}

func main() {
	var (
		designPath = flag.String("design", "", "path to a design document (.json, .yaml, .yml)")
		baseSeed   = flag.Int("seed", designcfg.DefaultBaseSeed, "base seed for panel seed derivation")
		packDir    = flag.String("pack-dir", "", "optional directory with pre-rendered geometry pack files")
		asJSON     = flag.Bool("json", false, "emit the plan as JSON instead of a table")
	)
	flag.Parse()

	if *designPath == "" {
		fmt.Fprintln(os.Stderr, "usage: plan -design <file> [-seed n] [-pack-dir dir] [-json]")
		os.Exit(2)
	}

	raw, err := os.ReadFile(*designPath)
	if err != nil {
		fatalf("read design: %v", err)
	}

	var spec *domain.DesignSpec
	switch strings.ToLower(filepath.Ext(*designPath)) {
	case ".yaml", ".yml":
		spec, err = designcfg.ParseYAML(raw)
	default:
		spec, err = designcfg.ParseJSON(raw)
	}
	if err != nil {
		fatalf("invalid design: %v", err)
	}

	logger := infra.DiscardLogger()
	policy := domain.DefaultRunPolicy()
	fingerprint := spec.Fingerprint()

	builder := geometry.NewBuilder(*packDir, logger)
	pack, err := builder.Build(context.Background(), *spec, fingerprint)
	if err != nil {
		fatalf("build geometry pack: %v", err)
	}
	if err := (geometry.Gate{}).AssertReady(pack, domain.RequiredPackPanelTypes(spec.FloorCount)); err != nil {
		fatalf("%v", err)
	}

	art := &control.Artifacts{Pack: pack}
	planner := plan.NewPlanner(control.NewResolver(policy), policy)
	jobs, err := planner.Plan(*spec, *baseSeed, art)
	if err != nil {
		fatalf("plan: %v", err)
	}

	preview := planPreview{
		Fingerprint: fingerprint,
		FloorCount:  spec.FloorCount,
		BaseSeed:    *baseSeed,
		Panels:      make([]panelPreview, 0, len(jobs)),
	}
	for _, job := range jobs {
		preview.Panels = append(preview.Panels, panelPreview{
			PanelType:     job.PanelType,
			Width:         job.Width,
			Height:        job.Height,
			Seed:          job.Seed,
			ControlSource: job.Control.SourceType,
			Strength:      job.Control.Strength,
		})
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(preview); err != nil {
			fatalf("encode plan: %v", err)
		}
		return
	}

	fmt.Printf("design %s  floors=%d  seed=%d  panels=%d\n\n",
		preview.Fingerprint, preview.FloorCount, preview.BaseSeed, len(preview.Panels))
	fmt.Printf("%-4s %-22s %-11s %-12s %-22s %s\n", "#", "panel", "size", "seed", "control", "strength")
	for i, p := range preview.Panels {
		strength := "-"
		if p.ControlSource != domain.ControlNone {
			strength = fmt.Sprintf("%.2f", p.Strength)
		}
		fmt.Printf("%-4d %-22s %-11s %-12d %-22s %s\n",
			i+1, p.PanelType, fmt.Sprintf("%dx%d", p.Width, p.Height), p.Seed, p.ControlSource, strength)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
