package domain

import "time"

// RunStatus enumerates run lifecycle states.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
	RunStatusAborted   RunStatus = "aborted"
)

// Run is one generation run over a single design.
type Run struct {
	ID                string
	DesignFingerprint string
	DesignJSON        []byte
	BaseSeed          int
	Status            RunStatus
	AbortReason       string
	ReportJSON        []byte
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PanelRecord is the stored form of one panel result: the image lands in
// the file store under ImageKey, everything else in the payload JSON.
type PanelRecord struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	PanelType PanelType `json:"panel_type"`
	ImageKey  string    `json:"image_key,omitempty"`
	Payload   []byte    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ControlUsage summarizes how the run's panels were grounded.
type ControlUsage struct {
	WithControl     int                       `json:"with_control"`
	WithoutControl  int                       `json:"without_control"`
	RetriedPanels   []PanelType               `json:"retried_panels,omitempty"`
	SourceBreakdown map[ControlSourceType]int `json:"source_breakdown,omitempty"`
}

// RunReport is the structured manifest returned after every run, complete
// or not. A panel never disappears silently: it is listed as succeeded,
// failed, or degraded.
type RunReport struct {
	DesignFingerprint string       `json:"design_fingerprint"`
	Planned           int          `json:"planned"`
	Succeeded         []PanelType  `json:"succeeded"`
	Failed            []PanelType  `json:"failed"`
	Degraded          []PanelType  `json:"degraded,omitempty"`
	ControlUsage      ControlUsage `json:"control_usage"`
	AbortReason       string       `json:"abort_reason,omitempty"`
	StartedAt         time.Time    `json:"started_at"`
	FinishedAt        time.Time    `json:"finished_at"`
}

// Completed reports whether every planned panel produced a non-failed result.
func (r RunReport) Completed() bool {
	return r.AbortReason == "" && len(r.Failed) == 0
}
