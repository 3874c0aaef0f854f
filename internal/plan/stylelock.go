package plan

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"archpanel/internal/domain"
)

var titleCaser = cases.Title(language.English)

// StyleLock produces the compact deterministic summary of the design's
// style, primary material, roof type, and palette. It is prepended and
// appended to every prompt so each independent backend call is biased
// toward the same descriptive target.
func StyleLock(spec domain.DesignSpec) string {
	parts := []string{
		fmt.Sprintf("%s architecture", titleCaser.String(strings.TrimSpace(spec.Style))),
		fmt.Sprintf("%s facade", strings.ToLower(strings.TrimSpace(spec.PrimaryMaterial))),
		fmt.Sprintf("%s roof", strings.ToLower(strings.TrimSpace(spec.RoofType))),
		fmt.Sprintf("%d-storey single building", spec.FloorCount),
	}
	if sec := strings.TrimSpace(spec.SecondaryMaterial); sec != "" {
		parts = append(parts, fmt.Sprintf("%s accents", strings.ToLower(sec)))
	}
	if len(spec.Palette) > 0 {
		colors := make([]string, 0, len(spec.Palette))
		for _, c := range spec.Palette {
			if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
				colors = append(colors, c)
			}
		}
		if len(colors) > 0 {
			parts = append(parts, "palette of "+strings.Join(colors, ", "))
		}
	}
	return strings.Join(parts, ", ")
}

// LockPrompt wraps the panel-specific body with the style lock on both
// sides. Repetition at head and tail measurably reduces per-panel drift
// against models that truncate or de-emphasize the middle of long prompts.
func LockPrompt(spec domain.DesignSpec, body string) string {
	lock := StyleLock(spec)
	return lock + ".\n" + strings.TrimSpace(body) + "\n" + lock + "."
}
