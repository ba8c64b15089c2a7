package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mindwell/stress-engine/internal/models"
)

// MinHistoryForPatterns is the smallest history that yields a pattern.
const MinHistoryForPatterns = 3

// HistoryWindow caps how many recent assessments feed pattern detection.
const HistoryWindow = 30

// Detect runs all pattern analyses over a user's recent assessments,
// ordered most-recent-first. Returns nil when the history is too short
// for any analysis to be meaningful.
func Detect(history []*models.StressAssessment) *models.StressPattern {
	if len(history) < MinHistoryForPatterns {
		return nil
	}
	if len(history) > HistoryWindow {
		history = history[:HistoryWindow]
	}

	p := &models.StressPattern{
		Trend:                         analyzeTrend(history),
		SleepConcentrationCorrelation: analyzeSleepConcentration(history),
		DeadlineStressCorrelation:     analyzeDeadlineStress(history),
		WorkloadStressCorrelation:     analyzeWorkloadStress(history),
		EmotionPatterns:               analyzeEmotions(history),
		WeeklyPatterns:                analyzeWeekly(history),
		TimeOfDayPatterns:             analyzeTimeOfDay(history),
	}
	p.Recommendations = buildRecommendations(p, len(history))
	return p
}

// round rounds half toward positive infinity, so -5.5 becomes -5.
// Negative halves occur in trend deltas.
func round(f float64) int {
	return int(math.Floor(f + 0.5))
}

// analyzeTrend splits the window chronologically into halves and
// compares their mean scores. On odd counts the second half gets the
// extra element.
func analyzeTrend(history []*models.StressAssessment) models.TrendAnalysis {
	ordered := make([]*models.StressAssessment, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	mid := len(ordered) / 2
	first, second := ordered[:mid], ordered[mid:]

	firstAvg := meanScore(first)
	secondAvg := meanScore(second)
	change := secondAvg - firstAvg

	direction := models.TrendStable
	if change > 5 {
		direction = models.TrendIncreasing
	} else if change < -5 {
		direction = models.TrendDecreasing
	}

	return models.TrendAnalysis{
		Direction:     direction,
		Change:        round(change),
		PercentChange: round(change / firstAvg * 100),
		FirstHalfAvg:  round(firstAvg),
		SecondHalfAvg: round(secondAvg),
	}
}

func meanScore(entries []*models.StressAssessment) float64 {
	sum := 0
	for _, a := range entries {
		sum += a.StressScore
	}
	return float64(sum) / float64(len(entries))
}

func analyzeSleepConcentration(history []*models.StressAssessment) models.SleepConcentrationCorrelation {
	var c models.SleepConcentrationCorrelation

	for _, a := range history {
		lowSleep := a.Sleep <= 5
		lowConcentration := a.Concentration <= 5

		switch {
		case lowSleep && lowConcentration:
			c.LowSleepLowConcentration++
		case lowSleep:
			c.LowSleepHighConcentration++
		case lowConcentration:
			c.HighSleepLowConcentration++
		default:
			c.HighSleepHighConcentration++
		}
	}

	c.Total = len(history)
	strength := float64(c.LowSleepLowConcentration) / float64(c.Total) * 100
	c.CorrelationStrength = round(strength)
	c.Significant = strength > 50
	return c
}

func analyzeDeadlineStress(history []*models.StressAssessment) models.DeadlineStressCorrelation {
	var c models.DeadlineStressCorrelation

	for _, a := range history {
		highDeadline := a.Deadlines >= 7
		highStress := a.StressScore >= 70

		switch {
		case highDeadline && highStress:
			c.HighDeadlineHighStress++
		case highDeadline:
			c.HighDeadlineLowStress++
		case highStress:
			c.LowDeadlineHighStress++
		default:
			c.LowDeadlineLowStress++
		}
	}

	c.Total = len(history)
	strength := float64(c.HighDeadlineHighStress) / float64(c.Total) * 100
	c.CorrelationStrength = round(strength)
	c.Significant = strength > 30
	return c
}

func analyzeWorkloadStress(history []*models.StressAssessment) models.WorkloadStressCorrelation {
	var c models.WorkloadStressCorrelation

	for _, a := range history {
		highWorkload := a.Workload >= 7
		highStress := a.StressScore >= 70

		switch {
		case highWorkload && highStress:
			c.HighWorkloadHighStress++
		case highWorkload:
			c.HighWorkloadLowStress++
		case highStress:
			c.LowWorkloadHighStress++
		default:
			c.LowWorkloadLowStress++
		}
	}

	c.Total = len(history)
	strength := float64(c.HighWorkloadHighStress) / float64(c.Total) * 100
	c.CorrelationStrength = round(strength)
	c.Significant = strength > 30
	return c
}

// analyzeEmotions counts each vocabulary tag across the window.
// Percentages are relative to the number of entries, not tags. Ties for
// most common resolve to the tag listed earlier in the vocabulary.
func analyzeEmotions(history []*models.StressAssessment) models.EmotionFrequency {
	counts := make(map[models.EmotionTag]int, len(models.EmotionVocabulary))
	for _, tag := range models.EmotionVocabulary {
		counts[tag] = 0
	}

	for _, a := range history {
		for _, tag := range a.EmotionTags {
			if _, ok := counts[tag]; ok {
				counts[tag]++
			}
		}
	}

	total := len(history)
	percentages := make(map[models.EmotionTag]int, len(counts))
	for tag, n := range counts {
		percentages[tag] = round(float64(n) / float64(total) * 100)
	}

	var most *models.MostCommonEmotion
	for _, tag := range models.EmotionVocabulary {
		if most == nil || counts[tag] > most.Count {
			most = &models.MostCommonEmotion{Emotion: tag, Count: counts[tag]}
		}
	}

	return models.EmotionFrequency{
		Counts:      counts,
		Percentages: percentages,
		MostCommon:  most,
		Total:       total,
	}
}

func analyzeWeekly(history []*models.StressAssessment) models.WeeklyPattern {
	scores := make(map[time.Weekday][]int)
	for _, a := range history {
		day := a.CreatedAt.Weekday()
		scores[day] = append(scores[day], a.StressScore)
	}

	averages := make(map[string]int)
	var highest *models.HighestStressDay

	for day := time.Sunday; day <= time.Saturday; day++ {
		entries := scores[day]
		if len(entries) == 0 {
			continue
		}

		sum := 0
		for _, s := range entries {
			sum += s
		}
		avg := round(float64(sum) / float64(len(entries)))
		averages[day.String()] = avg

		if highest == nil || avg > highest.AvgStress {
			highest = &models.HighestStressDay{Day: day.String(), AvgStress: avg}
		}
	}

	return models.WeeklyPattern{
		Averages:         averages,
		HighestStressDay: highest,
	}
}

// Time-of-day slots: morning [6,12), afternoon [12,18), evening
// [18,22), night otherwise.
var timeSlots = []string{"morning", "afternoon", "evening", "night"}

func slotForHour(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

func analyzeTimeOfDay(history []*models.StressAssessment) models.TimeOfDayPattern {
	sums := make(map[string]int)
	counts := make(map[string]int)

	for _, a := range history {
		slot := slotForHour(a.CreatedAt.Hour())
		sums[slot] += a.StressScore
		counts[slot]++
	}

	averages := make(map[string]int)
	for _, slot := range timeSlots {
		if counts[slot] > 0 {
			averages[slot] = round(float64(sums[slot]) / float64(counts[slot]))
		}
	}

	return models.TimeOfDayPattern{Averages: averages}
}

// buildRecommendations evaluates the fixed rule list against the
// computed analyses. Rules are independent; all that match are emitted.
func buildRecommendations(p *models.StressPattern, entries int) []models.Recommendation {
	var recs []models.Recommendation

	if p.Trend.Direction == models.TrendIncreasing {
		recs = append(recs, models.Recommendation{
			Type:     "trend",
			Priority: models.PriorityHigh,
			Title:    "Stress is Increasing",
			Message:  "Your stress levels have been rising. Consider implementing daily stress management practices.",
			Action:   "Schedule regular breathing exercises and breaks",
		})
	}

	if p.SleepConcentrationCorrelation.Significant {
		recs = append(recs, models.Recommendation{
			Type:     "correlation",
			Priority: models.PriorityHigh,
			Title:    "Sleep Affects Your Focus",
			Message:  "We noticed that when your sleep is poor, your concentration drops significantly.",
			Action:   "Prioritize 7-9 hours of sleep for better academic performance",
		})
	}

	if p.DeadlineStressCorrelation.Significant {
		recs = append(recs, models.Recommendation{
			Type:     "correlation",
			Priority: models.PriorityMedium,
			Title:    "Deadlines Trigger Stress",
			Message:  "High deadline pressure often leads to elevated stress for you.",
			Action:   "Try breaking down assignments into smaller tasks earlier to reduce deadline pressure",
		})
	}

	if most := p.EmotionPatterns.MostCommon; most != nil && float64(most.Count) > float64(entries)*0.4 {
		lower := strings.ToLower(string(most.Emotion))
		recs = append(recs, models.Recommendation{
			Type:     "emotion",
			Priority: models.PriorityMedium,
			Title:    fmt.Sprintf("Frequently Feeling %s", most.Emotion),
			Message:  fmt.Sprintf("You often report feeling %s. This might indicate a need for specific coping strategies.", lower),
			Action:   fmt.Sprintf("Try targeted exercises for managing %s", lower),
		})
	}

	if day := p.WeeklyPatterns.HighestStressDay; day != nil && day.AvgStress >= 70 {
		recs = append(recs, models.Recommendation{
			Type:     "weekly",
			Priority: models.PriorityLow,
			Title:    fmt.Sprintf("%ss Are Stressful", day.Day),
			Message:  fmt.Sprintf("You tend to experience higher stress on %ss.", day.Day),
			Action:   fmt.Sprintf("Plan lighter workloads or extra self-care on %ss", day.Day),
		})
	}

	return recs
}
