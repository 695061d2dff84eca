package analytics

import "github.com/lentera-edu/lentera-lms-backend/internal/domain/result"

// ═══════════════════════════════════════════════════════════════════════════
// Weighted Difficulty Scorer
// ═══════════════════════════════════════════════════════════════════════════

// Point bucket thresholds and the linear weights below are product decisions
// (accuracy matters most, then remediation burden, then speed). They are kept
// verbatim for compatibility with historical dashboards; do not re-derive
// them from statistics.
const (
	scoreThresholdSevere   = 65.0 // averageScore below this -> 2 points
	scoreThresholdModerate = 80.0 // averageScore below this -> 1 point

	timeRatioSevere   = 1.4 // averageTime above 1.4x baseline -> 2 points
	timeRatioModerate = 1.1 // averageTime above 1.1x baseline -> 1 point

	remedialRateSevere   = 25.0 // remedial rate above this pct -> 2 points
	remedialRateModerate = 10.0 // remedial rate above this pct -> 1 point

	weightScore    = 0.5
	weightRemedial = 0.3
	weightTime     = 0.2
)

// DefaultGlobalAverageTimeSeconds is the time baseline used when the log has
// no post-test events at all: 10 minutes, instead of dividing by zero.
const DefaultGlobalAverageTimeSeconds = 600.0

// DifficultyScore is the composite difficulty signal for one topic or module.
// Point fields are ordinal severities (0 good, 2 worst); WeightedScore is the
// continuous ranking value in [0, 2], higher = harder.
type DifficultyScore struct {
	ScorePoints    int
	TimePoints     int
	RemedialPoints int
	WeightedScore  float64
}

// ScoreDifficulty combines an entity's metrics into the weighted difficulty
// score relative to the global time baseline. An entity with zero attempts
// scores 0 on every axis but is still a valid, rankable value.
func ScoreDifficulty(m EntityMetrics, globalAverageTimeSeconds float64) DifficultyScore {
	if m.UserCount == 0 {
		return DifficultyScore{}
	}
	if globalAverageTimeSeconds <= 0 {
		globalAverageTimeSeconds = DefaultGlobalAverageTimeSeconds
	}

	var s DifficultyScore

	switch {
	case m.AverageScore < scoreThresholdSevere:
		s.ScorePoints = 2
	case m.AverageScore < scoreThresholdModerate:
		s.ScorePoints = 1
	}

	switch {
	case m.AverageTimeSeconds > timeRatioSevere*globalAverageTimeSeconds:
		s.TimePoints = 2
	case m.AverageTimeSeconds > timeRatioModerate*globalAverageTimeSeconds:
		s.TimePoints = 1
	}

	switch {
	case m.RemedialRate > remedialRateSevere:
		s.RemedialPoints = 2
	case m.RemedialRate > remedialRateModerate:
		s.RemedialPoints = 1
	}

	s.WeightedScore = weightScore*float64(s.ScorePoints) +
		weightRemedial*float64(s.RemedialPoints) +
		weightTime*float64(s.TimePoints)
	return s
}

// GlobalAverageTime computes the single per-run time baseline: the mean
// duration over all post-test events, topic and module combined. Non-post-test
// events in the input are ignored. Returns the 600 second default when no
// post-test events exist.
func GlobalAverageTime(events []*result.TestResult) float64 {
	var sum, count int64
	for _, ev := range events {
		if !ev.TestType.IsPostTest() {
			continue
		}
		sum += int64(ev.TimeTakenSeconds)
		count++
	}
	if count == 0 {
		return DefaultGlobalAverageTimeSeconds
	}
	return float64(sum) / float64(count)
}

// MinAttemptsForHardest is the qualifying-attempt floor for the "hardest topic
// overall" ranking. Entities below it stay in the general tables but are
// excluded from the hardest pick to keep sparse data from dominating.
const MinAttemptsForHardest = 3
