// Package stats folds a user's completed sessions into dashboard metrics:
// monthly counts with trend, day streak, average duration, completion rate,
// weekly volume, and most-performed exercises. Stopped sessions never reach
// this package; the history query excludes them.
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/meltforce/liftlog/internal/models"
)

// History supplies the completed sessions the analyzer folds over.
// *storage.DB implements it.
type History interface {
	ListCompletedSessions(ctx context.Context, userID int) ([]models.Session, error)
}

// Analyzer computes derived statistics from session history.
type Analyzer struct {
	history History
}

// NewAnalyzer creates an Analyzer over the given history source.
func NewAnalyzer(history History) *Analyzer {
	return &Analyzer{history: history}
}

// Dashboard is the aggregate view served to the progress page.
type Dashboard struct {
	MonthlyCount    int             `json:"monthly_count"`
	MonthlyTrendPct float64         `json:"monthly_trend_pct"`
	StreakDays      int             `json:"streak_days"`
	AvgDurationMin  float64         `json:"avg_duration_min"`
	CompletionRate  float64         `json:"completion_rate"`
	WeeklyVolume    []WeekdayVolume `json:"weekly_volume"`
	TopExercises    []ExerciseCount `json:"top_exercises"`
}

// WeekdayVolume is the completed-exercise count for one day of the trailing
// 7-day window. Day is a weekday identifier ("Mon".."Sun"), not a display
// string.
type WeekdayVolume struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// ExerciseCount is one entry of the most-performed-exercises ranking.
type ExerciseCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// topExercisesDefault is the ranking length served on the dashboard.
const topExercisesDefault = 5

// Dashboard computes all aggregate metrics at the given reference time.
func (a *Analyzer) Dashboard(ctx context.Context, userID int, now time.Time) (*Dashboard, error) {
	sessions, err := a.history.ListCompletedSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	thisMonth, trend := MonthlyTrend(sessions, now)
	return &Dashboard{
		MonthlyCount:    thisMonth,
		MonthlyTrendPct: trend,
		StreakDays:      Streak(sessions, now),
		AvgDurationMin:  AvgDurationMin(sessions),
		CompletionRate:  OverallCompletionRate(sessions),
		WeeklyVolume:    WeeklyVolume(sessions, now),
		TopExercises:    TopExercises(sessions, topExercisesDefault),
	}, nil
}

// Top returns the n most-performed exercises for the user.
func (a *Analyzer) Top(ctx context.Context, userID, n int) ([]ExerciseCount, error) {
	sessions, err := a.history.ListCompletedSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return TopExercises(sessions, n), nil
}

// MonthlyTrend returns the count of sessions started in now's calendar
// month and the percentage change versus the prior month. The change is 0
// when the prior month had no sessions.
func MonthlyTrend(sessions []models.Session, now time.Time) (count int, trendPct float64) {
	thisStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastStart := thisStart.AddDate(0, -1, 0)
	nextStart := thisStart.AddDate(0, 1, 0)

	var last int
	for _, s := range sessions {
		t := s.StartedAt.In(now.Location())
		switch {
		case !t.Before(thisStart) && t.Before(nextStart):
			count++
		case !t.Before(lastStart) && t.Before(thisStart):
			last++
		}
	}

	if last == 0 {
		return count, 0
	}
	return count, float64(count-last) / float64(last) * 100
}

// Streak returns the length of the unbroken run of consecutive calendar
// days with at least one completed session, anchored to the most recent
// activity day. A streak only counts when that day is today or yesterday;
// older activity yields 0.
func Streak(sessions []models.Session, now time.Time) int {
	if len(sessions) == 0 {
		return 0
	}

	days := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		days[dayKey(s.StartedAt, now.Location())] = true
	}

	anchor := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !days[dayKey(anchor, now.Location())] {
		anchor = anchor.AddDate(0, 0, -1)
		if !days[dayKey(anchor, now.Location())] {
			return 0
		}
	}

	streak := 0
	for days[dayKey(anchor, now.Location())] {
		streak++
		anchor = anchor.AddDate(0, 0, -1)
	}
	return streak
}

// AvgDurationMin returns the mean session duration in minutes. Sessions
// without an end time are skipped; the invariant says completed sessions
// always have one, so this is defensive only.
func AvgDurationMin(sessions []models.Session) float64 {
	var total time.Duration
	var n int
	for _, s := range sessions {
		if s.EndedAt == nil {
			continue
		}
		total += s.EndedAt.Sub(s.StartedAt)
		n++
	}
	if n == 0 {
		return 0
	}
	return total.Minutes() / float64(n)
}

// OverallCompletionRate returns the mean of per-session completion rates.
// The rate snapshotted at finish time wins; it is recomputed from the
// exercise list only for sessions missing the snapshot.
func OverallCompletionRate(sessions []models.Session) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sessions {
		if s.CompletionRate != nil {
			sum += *s.CompletionRate
		} else {
			sum += models.CompletionRate(s.Exercises)
		}
	}
	return sum / float64(len(sessions))
}

// WeeklyVolume buckets completed-exercise counts by weekday over the
// trailing 7-day window ending at now, oldest day first.
func WeeklyVolume(sessions []models.Session, now time.Time) []WeekdayVolume {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	counts := make(map[string]int, 7)
	for _, s := range sessions {
		t := s.StartedAt.In(now.Location())
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		diff := int(today.Sub(day).Hours() / 24)
		if diff < 0 || diff > 6 {
			continue
		}
		for _, ex := range s.Exercises {
			if ex.Completed {
				counts[dayKey(day, now.Location())]++
			}
		}
	}

	result := make([]WeekdayVolume, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		result = append(result, WeekdayVolume{
			Day:   day.Format("Mon"),
			Count: counts[dayKey(day, now.Location())],
		})
	}
	return result
}

// TopExercises groups completed session exercises by name and returns the
// top n by occurrence count, descending. Ties keep first-encountered order
// so the ranking is deterministic.
func TopExercises(sessions []models.Session, n int) []ExerciseCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, s := range sessions {
		for _, ex := range s.Exercises {
			if !ex.Completed {
				continue
			}
			if _, ok := counts[ex.Name]; !ok {
				firstSeen[ex.Name] = order
				order++
			}
			counts[ex.Name]++
		}
	}

	ranked := make([]ExerciseCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, ExerciseCount{Name: name, Count: count})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Name] < firstSeen[ranked[j].Name]
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
