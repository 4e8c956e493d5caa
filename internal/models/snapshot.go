package models

import "time"

// Phase is the state controller lifecycle phase.
type Phase string

const (
	PhaseLoading       Phase = "loading"
	PhaseReady         Phase = "ready"
	PhaseSetupRequired Phase = "setup_required"
	PhaseFailed        Phase = "failed"
)

// Snapshot is the in-memory copy of every entity collection plus the
// notifications derived from it. The state controller holds the only
// authoritative instance per process.
type Snapshot struct {
	Teachers      []Teacher       `json:"teachers"`
	Laboratories  []Laboratory    `json:"laboratories"`
	Tasks         []Task          `json:"tasks"`
	Tools         []ToolItem      `json:"tools"`
	Consumables   []LabConsumable `json:"consumables"`
	Analyses      []ItemAnalysis  `json:"analyses"`
	Notifications []Notification  `json:"notifications"`
	LoadedAt      time.Time       `json:"loadedAt"`
}
