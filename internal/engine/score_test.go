package engine

import (
	"testing"

	"github.com/mindwell/stress-engine/internal/models"
)

func TestScoreKnownValues(t *testing.T) {
	tests := []struct {
		name          string
		workload      int
		deadlines     int
		concentration int
		sleep         int
		tags          []models.EmotionTag
		want          int
	}{
		{
			name:     "high stress with two emotions",
			workload: 8, deadlines: 8, concentration: 3, sleep: 3,
			tags: []models.EmotionTag{models.EmotionAnxious, models.EmotionOverwhelmed},
			// base (80+80+40+40)/4 = 60, multiplier 1.2
			want: 72,
		},
		{
			name:     "low stress no emotions rounds half up",
			workload: 4, deadlines: 3, concentration: 4, sleep: 6,
			// base (40+30+35+25)/4 = 32.5
			want: 33,
		},
		{
			name:     "moderate metrics good sleep and focus",
			workload: 6, deadlines: 5, concentration: 8, sleep: 8,
			// base (60+50+15+15)/4 = 35
			want: 35,
		},
		{
			name:     "maxed out clamps at 100",
			workload: 10, deadlines: 10, concentration: 1, sleep: 1,
			tags: models.EmotionVocabulary,
			want: 100,
		},
		{
			name:     "floor of the input domain",
			workload: 1, deadlines: 1, concentration: 10, sleep: 10,
			// base (10+10+5+5)/4 = 7.5
			want: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.workload, tt.deadlines, tt.concentration, tt.sleep, tt.tags)
			if got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreRange(t *testing.T) {
	for w := 1; w <= 10; w++ {
		for d := 1; d <= 10; d++ {
			for c := 1; c <= 10; c++ {
				for s := 1; s <= 10; s++ {
					for tags := 0; tags <= 5; tags++ {
						got := Score(w, d, c, s, models.EmotionVocabulary[:tags])
						if got < 0 || got > 100 {
							t.Fatalf("Score(%d,%d,%d,%d,%d tags) = %d, out of [0,100]", w, d, c, s, tags, got)
						}
					}
				}
			}
		}
	}
}

func TestScoreMonotonicity(t *testing.T) {
	// Non-decreasing in workload and deadlines, non-increasing in
	// concentration and sleep, non-decreasing in tag count.
	for v := 1; v < 10; v++ {
		if Score(v, 5, 5, 5, nil) > Score(v+1, 5, 5, 5, nil) {
			t.Errorf("score decreased when workload rose from %d to %d", v, v+1)
		}
		if Score(5, v, 5, 5, nil) > Score(5, v+1, 5, 5, nil) {
			t.Errorf("score decreased when deadlines rose from %d to %d", v, v+1)
		}
		if Score(5, 5, v, 5, nil) < Score(5, 5, v+1, 5, nil) {
			t.Errorf("score increased when concentration rose from %d to %d", v, v+1)
		}
		if Score(5, 5, 5, v, nil) < Score(5, 5, 5, v+1, nil) {
			t.Errorf("score increased when sleep rose from %d to %d", v, v+1)
		}
	}

	for n := 0; n < 5; n++ {
		if Score(5, 5, 5, 5, models.EmotionVocabulary[:n]) > Score(5, 5, 5, 5, models.EmotionVocabulary[:n+1]) {
			t.Errorf("score decreased when tag count rose from %d to %d", n, n+1)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	tags := []models.EmotionTag{models.EmotionFrustrated}
	first := Score(7, 4, 6, 3, tags)
	for i := 0; i < 100; i++ {
		if got := Score(7, 4, 6, 3, tags); got != first {
			t.Fatalf("Score not deterministic: got %d then %d", first, got)
		}
	}
}
