package models

import (
	"time"
)

// TrendDirection describes how a user's stress has moved across the
// analysis window.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendAnalysis compares the first and second halves of the window.
type TrendAnalysis struct {
	Direction     TrendDirection `json:"direction"`
	Change        int            `json:"change"`
	PercentChange int            `json:"percentChange"`
	FirstHalfAvg  int            `json:"firstHalfAvg"`
	SecondHalfAvg int            `json:"secondHalfAvg"`
}

// SleepConcentrationCorrelation is a four-bucket contingency count of
// low sleep (<=5) against low concentration (<=5). Strength is the
// low/low bucket as a percentage of the window; significant above 50.
type SleepConcentrationCorrelation struct {
	CorrelationStrength        int  `json:"correlationStrength"`
	LowSleepLowConcentration   int  `json:"lowSleepLowConcentration"`
	LowSleepHighConcentration  int  `json:"lowSleepHighConcentration"`
	HighSleepLowConcentration  int  `json:"highSleepLowConcentration"`
	HighSleepHighConcentration int  `json:"highSleepHighConcentration"`
	Total                      int  `json:"total"`
	Significant                bool `json:"significant"`
}

// DeadlineStressCorrelation buckets high deadline pressure (>=7)
// against high stress (>=70); significant above 30.
type DeadlineStressCorrelation struct {
	CorrelationStrength    int  `json:"correlationStrength"`
	HighDeadlineHighStress int  `json:"highDeadlineHighStress"`
	HighDeadlineLowStress  int  `json:"highDeadlineLowStress"`
	LowDeadlineHighStress  int  `json:"lowDeadlineHighStress"`
	LowDeadlineLowStress   int  `json:"lowDeadlineLowStress"`
	Total                  int  `json:"total"`
	Significant            bool `json:"significant"`
}

// WorkloadStressCorrelation buckets high workload (>=7) against high
// stress (>=70); significant above 30.
type WorkloadStressCorrelation struct {
	CorrelationStrength    int  `json:"correlationStrength"`
	HighWorkloadHighStress int  `json:"highWorkloadHighStress"`
	HighWorkloadLowStress  int  `json:"highWorkloadLowStress"`
	LowWorkloadHighStress  int  `json:"lowWorkloadHighStress"`
	LowWorkloadLowStress   int  `json:"lowWorkloadLowStress"`
	Total                  int  `json:"total"`
	Significant            bool `json:"significant"`
}

// MostCommonEmotion names the single most frequent tag in the window.
type MostCommonEmotion struct {
	Emotion EmotionTag `json:"emotion"`
	Count   int        `json:"count"`
}

// EmotionFrequency counts each vocabulary tag across the window.
type EmotionFrequency struct {
	Counts      map[EmotionTag]int `json:"counts"`
	Percentages map[EmotionTag]int `json:"percentages"`
	MostCommon  *MostCommonEmotion `json:"mostCommon"`
	Total       int                `json:"total"`
}

// HighestStressDay is the weekday with the highest average score.
type HighestStressDay struct {
	Day       string `json:"day"`
	AvgStress int    `json:"avgStress"`
}

// WeeklyPattern averages stress score per day of week. Days with no
// entries are absent from Averages.
type WeeklyPattern struct {
	Averages         map[string]int    `json:"averages"`
	HighestStressDay *HighestStressDay `json:"highestStressDay"`
}

// TimeOfDayPattern averages stress score per time slot: morning
// [6,12), afternoon [12,18), evening [18,22), night otherwise.
type TimeOfDayPattern struct {
	Averages map[string]int `json:"averages"`
}

// Recommendation is a pattern-level suggestion derived from the
// aggregate analyses.
type Recommendation struct {
	Type     string   `json:"type"`
	Priority Priority `json:"priority"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Action   string   `json:"action"`
}

// StressPattern is the single replace-on-write aggregate of a user's
// longitudinal analyses. At most one live row per user; recomputed from
// scratch whenever the user has at least three assessments.
type StressPattern struct {
	UserID                        string                        `json:"user_id"`
	Trend                         TrendAnalysis                 `json:"stressTrend"`
	SleepConcentrationCorrelation SleepConcentrationCorrelation `json:"sleepConcentrationCorrelation"`
	DeadlineStressCorrelation     DeadlineStressCorrelation     `json:"deadlineStressCorrelation"`
	WorkloadStressCorrelation     WorkloadStressCorrelation     `json:"workloadStressCorrelation"`
	EmotionPatterns               EmotionFrequency              `json:"emotionPatterns"`
	WeeklyPatterns                WeeklyPattern                 `json:"weeklyPatterns"`
	TimeOfDayPatterns             TimeOfDayPattern              `json:"timeOfDayPatterns"`
	Recommendations               []Recommendation              `json:"recommendations"`
	LastUpdated                   time.Time                     `json:"lastUpdated"`
}
