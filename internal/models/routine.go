package models

// Tier selects which routine template a stress score falls into.
type Tier string

const (
	TierCalming      Tier = "calming"
	TierBalanced     Tier = "balanced"
	TierProductivity Tier = "productivity"
)

// Priority of a routine or recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// StepKind distinguishes timed activity steps from zero-duration
// informational steps appended from detected patterns.
type StepKind string

const (
	StepActivity StepKind = ""
	StepInsight  StepKind = "insight"
)

// Step is one ordered entry of a wellness routine. Duration is in
// minutes and is 0 for purely informational steps. Game references an
// exercise in the wellness catalog and is never validated or executed
// by the engine.
type Step struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Game        string   `json:"game,omitempty"`
	Duration    int      `json:"duration"`
	Order       int      `json:"order"`
	Icon        string   `json:"icon"`
	Scheduled   string   `json:"scheduled,omitempty"`
	Kind        StepKind `json:"type,omitempty"`
}

// Routine is the synthesized multi-step wellness plan attached to an
// assessment at creation time. Duration is the sum of step durations.
type Routine struct {
	Type      Tier     `json:"type"`
	Priority  Priority `json:"priority"`
	Duration  int      `json:"duration"`
	Steps     []Step   `json:"steps"`
	Rationale string   `json:"rationale"`
}

// InsightType classifies an insight for the UI.
type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightInfo    InsightType = "info"
	InsightSuccess InsightType = "success"
)

// Insight is a short human-readable observation generated alongside a
// routine. Not persisted as its own entity.
type Insight struct {
	Type    InsightType `json:"type"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Icon    string      `json:"icon"`
}
