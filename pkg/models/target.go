package models

// TargetProfile describes one addressable company the plan fans out over.
// The resolver hands the builder an already-ordered list; the builder only
// preserves that order.
type TargetProfile struct {
	Name      string             `json:"name"     validate:"required"`
	Industry  string             `json:"industry" validate:"required"`
	Size      string             `json:"size"`
	Employees int                `json:"employees"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}
