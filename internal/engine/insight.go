package engine

import (
	"github.com/mindwell/stress-engine/internal/models"
)

// GenerateInsights produces short human-readable observations from a
// scored assessment and, when available, the stored pattern snapshot.
// Rules are independent; every applicable insight is included.
func GenerateInsights(a *models.StressAssessment, pattern *models.StressPattern) []models.Insight {
	var insights []models.Insight

	switch {
	case a.StressScore >= highStressThreshold:
		insights = append(insights, models.Insight{
			Type:    models.InsightWarning,
			Title:   "High Stress Detected",
			Message: "Your stress levels are elevated. It's important to take time for self-care and relaxation.",
			Icon:    "⚠️",
		})
	case a.StressScore >= moderateStressThreshold:
		insights = append(insights, models.Insight{
			Type:    models.InsightInfo,
			Title:   "Moderate Stress",
			Message: "You're managing, but some stress-reduction techniques could help you feel more balanced.",
			Icon:    "ℹ️",
		})
	default:
		insights = append(insights, models.Insight{
			Type:    models.InsightSuccess,
			Title:   "Low Stress",
			Message: "Great job managing your stress! Keep up the good habits.",
			Icon:    "✅",
		})
	}

	if a.Sleep <= 5 {
		insights = append(insights, models.Insight{
			Type:    models.InsightWarning,
			Title:   "Sleep Quality Concern",
			Message: "Your sleep score is low. Poor sleep can significantly impact your academic performance and stress levels.",
			Icon:    "😴",
		})
	}

	if a.Concentration <= 5 {
		insights = append(insights, models.Insight{
			Type:    models.InsightInfo,
			Title:   "Focus Challenge",
			Message: "Your concentration is low. This might be related to stress, sleep, or needing a break.",
			Icon:    "🎯",
		})
	}

	if a.HasEmotion(models.EmotionOverwhelmed) {
		insights = append(insights, models.Insight{
			Type:    models.InsightInfo,
			Title:   "Feeling Overwhelmed",
			Message: "When feeling overwhelmed, break tasks into smaller steps and focus on one thing at a time.",
			Icon:    "🌊",
		})
	}

	if a.HasEmotion(models.EmotionConfused) {
		insights = append(insights, models.Insight{
			Type:    models.InsightInfo,
			Title:   "Feeling Confused",
			Message: "Confusion often comes from information overload. Try clarifying your priorities and asking for help when needed.",
			Icon:    "❓",
		})
	}

	if pattern != nil {
		if pattern.Trend.Direction == models.TrendIncreasing {
			insights = append(insights, models.Insight{
				Type:    models.InsightWarning,
				Title:   "Stress Trend",
				Message: "Your stress has been increasing recently. Consider implementing more regular stress management practices.",
				Icon:    "📈",
			})
		}

		sc := pattern.SleepConcentrationCorrelation
		if sc.Total > 0 && float64(sc.LowSleepLowConcentration) > float64(sc.Total)*0.5 {
			insights = append(insights, models.Insight{
				Type:    models.InsightInfo,
				Title:   "Sleep & Focus Pattern",
				Message: "We've noticed a strong connection between your sleep quality and concentration. Prioritizing sleep may improve your focus.",
				Icon:    "🔗",
			})
		}
	}

	return insights
}

// DefaultInsights is the fallback used when insight generation fails.
func DefaultInsights() []models.Insight {
	return []models.Insight{
		{
			Type:    models.InsightInfo,
			Title:   "Stress Check Complete",
			Message: "Your stress check has been recorded. Try some breathing exercises to help manage stress.",
			Icon:    "✅",
		},
	}
}
