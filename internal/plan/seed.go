package plan

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"archpanel/internal/domain"
)

// DeriveSeed maps a base seed and panel type to the backend's accepted
// positive int32 seed range. It is a pure function: re-planning the same
// design with the same base seed reproduces every per-panel seed exactly.
func DeriveSeed(baseSeed int, panelType domain.PanelType) int {
	material := fmt.Sprintf("%d|%s", baseSeed, panelType)
	sum := sha256.Sum256([]byte(material))
	n := binary.BigEndian.Uint32(sum[:4])
	value := int(n % 2147483647)
	if value <= 0 {
		fallback := binary.BigEndian.Uint32(sum[4:8]) % 2147483647
		if fallback == 0 {
			fallback = 1
		}
		value = int(fallback)
	}
	return value
}
