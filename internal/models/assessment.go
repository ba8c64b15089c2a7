package models

import (
	"time"
)

// EmotionTag is one of the fixed self-report emotion labels.
type EmotionTag string

const (
	EmotionAnxious     EmotionTag = "Anxious"
	EmotionOverwhelmed EmotionTag = "Overwhelmed"
	EmotionConfused    EmotionTag = "Confused"
	EmotionBored       EmotionTag = "Bored"
	EmotionFrustrated  EmotionTag = "Frustrated"
)

// EmotionVocabulary lists all valid emotion tags in canonical order.
// Order matters: emotion-frequency ties resolve to the earlier tag.
var EmotionVocabulary = []EmotionTag{
	EmotionAnxious,
	EmotionOverwhelmed,
	EmotionConfused,
	EmotionBored,
	EmotionFrustrated,
}

// Valid reports whether the tag belongs to the fixed vocabulary.
func (e EmotionTag) Valid() bool {
	for _, v := range EmotionVocabulary {
		if e == v {
			return true
		}
	}
	return false
}

// StressAssessment is one submitted stress questionnaire plus its
// derived score and generated routine. Immutable after creation except
// for the optional effectiveness rating supplied later by the user.
type StressAssessment struct {
	ID                   string       `json:"id"`
	UserID               string       `json:"user_id"`
	Workload             int          `json:"workload"`
	Deadlines            int          `json:"deadlines"`
	Concentration        int          `json:"concentration"`
	Sleep                int          `json:"sleep"`
	EmotionTags          []EmotionTag `json:"emotion_tags"`
	StressScore          int          `json:"stress_score"`
	RecommendedRoutine   Routine      `json:"recommended_routine"`
	RoutineEffectiveness *int         `json:"routine_effectiveness,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
}

// HasEmotion reports whether the assessment carries the given tag.
func (a *StressAssessment) HasEmotion(tag EmotionTag) bool {
	for _, t := range a.EmotionTags {
		if t == tag {
			return true
		}
	}
	return false
}

// SubmitRequest is the body of POST /api/v1/stress/submit.
type SubmitRequest struct {
	Workload      int          `json:"workload"`
	Deadlines     int          `json:"deadlines"`
	Concentration int          `json:"concentration"`
	Sleep         int          `json:"sleep"`
	EmotionTags   []EmotionTag `json:"emotion_tags"`
}

// SubmitResult is what the submission flow returns to the caller.
type SubmitResult struct {
	StressScore        int       `json:"stress_score"`
	RecommendedRoutine Routine   `json:"recommended_routine"`
	Insights           []Insight `json:"insights"`
	LogID              string    `json:"log_id"`
}

// EffectivenessRequest is the body of the routine-effectiveness update.
type EffectivenessRequest struct {
	Effectiveness int `json:"effectiveness"`
}

// StressStats summarizes a user's recent activity for the dashboard.
type StressStats struct {
	Streak       int        `json:"streak"`
	LatestScore  *int       `json:"latest_score"`
	LatestCheck  *time.Time `json:"latest_check"`
	WeeklyChecks int        `json:"weekly_checks"`
	WeeklyAvg    *int       `json:"weekly_avg"`
}
