package engine

import (
	"math"

	"github.com/mindwell/stress-engine/internal/models"
)

// Score maps one assessment's four metrics and emotion tags to a stress
// score in [0,100]. Inputs must already be validated to the 1-10 range
// by the caller; Score performs no validation.
//
// Concentration and sleep are inverted: low values push the score up.
// Each reported emotion adds 10% to the base before the final cap. The
// multiplier has no cap of its own; only the final min(100, ...) clamps.
func Score(workload, deadlines, concentration, sleep int, tags []models.EmotionTag) int {
	workloadScore := float64(workload * 10)
	deadlineScore := float64(deadlines * 10)
	concentrationScore := float64((11 - concentration) * 5)
	sleepScore := float64((11 - sleep) * 5)

	base := (workloadScore + deadlineScore + concentrationScore + sleepScore) / 4
	multiplier := 1 + 0.1*float64(len(tags))

	score := int(math.Round(base * multiplier))
	if score > 100 {
		score = 100
	}
	return score
}
