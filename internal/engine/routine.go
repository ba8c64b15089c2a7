package engine

import (
	"github.com/mindwell/stress-engine/internal/models"
)

// Score thresholds for tier selection.
const (
	highStressThreshold     = 70
	moderateStressThreshold = 40
)

// TierFor selects the routine tier for a stress score.
func TierFor(score int) models.Tier {
	switch {
	case score >= highStressThreshold:
		return models.TierCalming
	case score >= moderateStressThreshold:
		return models.TierBalanced
	default:
		return models.TierProductivity
	}
}

// routineBuilder accumulates steps, assigning order as they append.
type routineBuilder struct {
	routine models.Routine
}

func (b *routineBuilder) append(s models.Step) {
	s.Order = len(b.routine.Steps) + 1
	b.routine.Steps = append(b.routine.Steps, s)
}

func (b *routineBuilder) finish() models.Routine {
	total := 0
	for _, s := range b.routine.Steps {
		total += s.Duration
	}
	b.routine.Duration = total
	return b.routine
}

// GenerateRoutine synthesizes a personalized wellness routine from a
// scored assessment and, when available, the user's stored pattern
// snapshot (pass nil when none exists). Steps are ordered exactly as
// appended: tier base steps, conditional tier steps, the sleep augment,
// then pattern-derived informational steps.
func GenerateRoutine(a *models.StressAssessment, pattern *models.StressPattern) models.Routine {
	b := &routineBuilder{}

	switch TierFor(a.StressScore) {
	case models.TierCalming:
		buildCalming(b, a)
	case models.TierBalanced:
		buildBalanced(b, a)
	default:
		buildProductivity(b, a)
	}

	if a.Sleep <= 5 {
		b.append(models.Step{
			ID:          "sleep",
			Title:       "Sleep Preparation",
			Description: "Try the Dream Waves exercise before bed tonight to improve sleep quality",
			Game:        "dream-waves",
			Duration:    8,
			Icon:        "🌙",
			Scheduled:   "evening",
		})
		b.routine.Rationale += " Your sleep score is low - consider prioritizing rest tonight."
	}

	if pattern != nil {
		appendPatternSteps(b, pattern)
	}

	return b.finish()
}

// buildCalming targets high stress: calm the mind and body first.
func buildCalming(b *routineBuilder, a *models.StressAssessment) {
	b.routine.Type = models.TierCalming
	b.routine.Priority = models.PriorityHigh
	b.routine.Rationale = "Your stress levels are high. Let's focus on calming your mind and body first."

	b.append(models.Step{
		ID:          "breathing",
		Title:       "5-Minute Calming Breath",
		Description: "Slow, deep breathing to activate your body's relaxation response",
		Game:        "heart-calm",
		Duration:    5,
		Icon:        "💨",
	})

	if a.HasEmotion(models.EmotionOverwhelmed) || a.HasEmotion(models.EmotionAnxious) {
		b.append(models.Step{
			ID:          "grounding",
			Title:       "Quick Grounding Exercise",
			Description: "Take 2 minutes to notice 5 things you can see, 4 you can touch, 3 you can hear",
			Duration:    2,
			Icon:        "🌍",
		})
	}

	if a.HasEmotion(models.EmotionFrustrated) {
		b.append(models.Step{
			ID:          "gratitude",
			Title:       "Gratitude Reflection",
			Description: "Reflect on 3 things that went well today, no matter how small",
			Game:        "gratitude-wheel",
			Duration:    3,
			Icon:        "✨",
		})
	}
}

// buildBalanced targets moderate stress: mix calming with focus work.
func buildBalanced(b *routineBuilder, a *models.StressAssessment) {
	b.routine.Type = models.TierBalanced
	b.routine.Priority = models.PriorityMedium
	b.routine.Rationale = "You're experiencing moderate stress. Let's balance calming with focus."

	b.append(models.Step{
		ID:          "breathing",
		Title:       "3-Minute Breathing Reset",
		Description: "Quick breathing exercise to center yourself",
		Game:        "heart-calm",
		Duration:    3,
		Icon:        "💨",
	})

	if a.Concentration <= 5 {
		b.append(models.Step{
			ID:          "focus",
			Title:       "10-Minute Focus Sprint",
			Description: "Train your attention with a focused meditation session",
			Game:        "candle-focus",
			Duration:    10,
			Icon:        "🕯️",
		})
	}

	if a.Deadlines >= 7 {
		b.append(models.Step{
			ID:          "triage",
			Title:       "Task Triage",
			Description: "Break down your tasks: What's urgent? What can wait? What can be delegated?",
			Duration:    5,
			Icon:        "📋",
		})
	}
}

// buildProductivity targets low stress: boost productivity and focus.
func buildProductivity(b *routineBuilder, a *models.StressAssessment) {
	b.routine.Type = models.TierProductivity
	b.routine.Priority = models.PriorityLow
	b.routine.Rationale = "Your stress is manageable. Let's boost your productivity and focus."

	b.append(models.Step{
		ID:          "focus",
		Title:       "5-Minute Focus Boost",
		Description: "Sharpen your concentration for better study sessions",
		Game:        "candle-focus",
		Duration:    5,
		Icon:        "🕯️",
	})

	if a.Workload >= 7 {
		b.append(models.Step{
			ID:          "planning",
			Title:       "Study Plan Breakdown",
			Description: "Break your workload into manageable 25-minute Pomodoro blocks",
			Duration:    5,
			Icon:        "📚",
		})
	}

	b.append(models.Step{
		ID:          "gratitude",
		Title:       "Daily Gratitude",
		Description: "Acknowledge what you're grateful for to maintain positive momentum",
		Game:        "gratitude-wheel",
		Duration:    2,
		Icon:        "✨",
	})
}

// appendPatternSteps adds zero-duration informational steps when the
// stored correlations cross their reporting thresholds.
func appendPatternSteps(b *routineBuilder, p *models.StressPattern) {
	sc := p.SleepConcentrationCorrelation
	if sc.Total > 0 && float64(sc.LowSleepLowConcentration) > float64(sc.Total)*0.5 {
		b.append(models.Step{
			ID:          "pattern-sleep",
			Title:       "Sleep & Focus Connection",
			Description: "We noticed your concentration improves with better sleep. Try establishing a consistent sleep schedule.",
			Duration:    0,
			Icon:        "💡",
			Kind:        models.StepInsight,
		})
	}

	ds := p.DeadlineStressCorrelation
	if ds.Total > 0 && float64(ds.HighDeadlineHighStress) > float64(ds.Total)*0.3 {
		b.append(models.Step{
			ID:          "pattern-deadlines",
			Title:       "Deadline Management",
			Description: "You tend to experience high stress before deadlines. Try breaking tasks into smaller chunks earlier.",
			Duration:    0,
			Icon:        "💡",
			Kind:        models.StepInsight,
		})
	}
}

// DefaultRoutine is the fallback used when routine generation fails.
// The submission must still succeed with something actionable attached.
func DefaultRoutine() models.Routine {
	return models.Routine{
		Type:     models.TierBalanced,
		Priority: models.PriorityMedium,
		Duration: 5,
		Steps: []models.Step{
			{
				ID:          "breathing",
				Title:       "5-Minute Breathing Exercise",
				Description: "Take a moment to breathe and center yourself",
				Game:        "heart-calm",
				Duration:    5,
				Order:       1,
				Icon:        "💨",
			},
		},
		Rationale: "Take a moment to breathe and center yourself.",
	}
}
