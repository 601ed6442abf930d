package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/models"
)

var testNow = time.Date(2026, time.August, 20, 18, 30, 0, 0, time.UTC)

// sessionOn builds a completed session started at the given time with the
// given duration and completed-exercise names.
func sessionOn(start time.Time, duration time.Duration, exercises ...string) models.Session {
	end := start.Add(duration)
	rate := 1.0
	s := models.Session{
		ID:             uuid.New(),
		UserID:         1,
		Status:         models.StatusCompleted,
		StartedAt:      start,
		EndedAt:        &end,
		CompletionRate: &rate,
	}
	for i, name := range exercises {
		s.Exercises = append(s.Exercises, models.SessionExercise{
			ID:        uuid.New(),
			SessionID: s.ID,
			Position:  i,
			Name:      name,
			Completed: true,
		})
	}
	return s
}

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

// TestStreakConsecutiveDays verifies a three-day run ending today.
func TestStreakConsecutiveDays(t *testing.T) {
	sessions := []models.Session{
		sessionOn(daysAgo(0), time.Hour, "Squat"),
		sessionOn(daysAgo(1), time.Hour, "Squat"),
		sessionOn(daysAgo(2), time.Hour, "Squat"),
	}
	if got := Streak(sessions, testNow); got != 3 {
		t.Errorf("Streak = %d, want 3", got)
	}
}

// TestStreakBrokenByGap verifies that activity five days ago with nothing
// since yields no streak.
func TestStreakBrokenByGap(t *testing.T) {
	sessions := []models.Session{
		sessionOn(daysAgo(5), time.Hour, "Squat"),
	}
	if got := Streak(sessions, testNow); got != 0 {
		t.Errorf("Streak = %d, want 0", got)
	}
}

// TestStreakAnchoredYesterday verifies that a single session yesterday
// still counts as a one-day streak.
func TestStreakAnchoredYesterday(t *testing.T) {
	sessions := []models.Session{
		sessionOn(daysAgo(1), time.Hour, "Squat"),
	}
	if got := Streak(sessions, testNow); got != 1 {
		t.Errorf("Streak = %d, want 1", got)
	}
}

// TestStreakMultiplePerDay verifies that several sessions on the same day
// count as one streak day.
func TestStreakMultiplePerDay(t *testing.T) {
	sessions := []models.Session{
		sessionOn(daysAgo(0), time.Hour, "Squat"),
		sessionOn(daysAgo(0).Add(-3*time.Hour), time.Hour, "Bench Press"),
		sessionOn(daysAgo(1), time.Hour, "Deadlift"),
	}
	if got := Streak(sessions, testNow); got != 2 {
		t.Errorf("Streak = %d, want 2", got)
	}
}

// TestStreakEmpty verifies the no-history case.
func TestStreakEmpty(t *testing.T) {
	if got := Streak(nil, testNow); got != 0 {
		t.Errorf("Streak = %d, want 0", got)
	}
}

// TestMonthlyTrendZeroPriorMonth verifies the guard: sessions this month
// but none last month report a 0% change rather than a division blowup.
func TestMonthlyTrendZeroPriorMonth(t *testing.T) {
	var sessions []models.Session
	for i := range 5 {
		sessions = append(sessions, sessionOn(daysAgo(i), time.Hour, "Squat"))
	}
	count, trend := MonthlyTrend(sessions, testNow)
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	if trend != 0 {
		t.Errorf("trend = %f, want 0", trend)
	}
}

// TestMonthlyTrendChange verifies the percentage change against the prior
// calendar month.
func TestMonthlyTrendChange(t *testing.T) {
	lastMonth := time.Date(2026, time.July, 10, 12, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		sessionOn(daysAgo(0), time.Hour, "Squat"),
		sessionOn(daysAgo(3), time.Hour, "Squat"),
		sessionOn(daysAgo(6), time.Hour, "Squat"),
		sessionOn(lastMonth, time.Hour, "Squat"),
		sessionOn(lastMonth.AddDate(0, 0, 2), time.Hour, "Squat"),
	}
	count, trend := MonthlyTrend(sessions, testNow)
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if trend != 50 {
		t.Errorf("trend = %f, want 50", trend)
	}
}

// TestAvgDurationMin verifies the mean and that sessions without an end
// time are skipped.
func TestAvgDurationMin(t *testing.T) {
	open := sessionOn(daysAgo(2), time.Hour, "Squat")
	open.EndedAt = nil
	sessions := []models.Session{
		sessionOn(daysAgo(0), 40*time.Minute, "Squat"),
		sessionOn(daysAgo(1), 60*time.Minute, "Squat"),
		open,
	}
	if got := AvgDurationMin(sessions); got != 50 {
		t.Errorf("AvgDurationMin = %f, want 50", got)
	}
}

// TestOverallCompletionRate verifies that snapshotted rates are averaged
// and missing snapshots fall back to the exercise list.
func TestOverallCompletionRate(t *testing.T) {
	full := sessionOn(daysAgo(0), time.Hour, "Squat")

	half := sessionOn(daysAgo(1), time.Hour, "Squat", "Bench Press")
	rate := 0.5
	half.CompletionRate = &rate

	noSnapshot := sessionOn(daysAgo(2), time.Hour, "Squat", "Bench Press")
	noSnapshot.CompletionRate = nil
	noSnapshot.Exercises[1].Completed = false

	got := OverallCompletionRate([]models.Session{full, half, noSnapshot})
	want := (1.0 + 0.5 + 0.5) / 3
	if got < want-0.0001 || got > want+0.0001 {
		t.Errorf("OverallCompletionRate = %f, want %f", got, want)
	}
}

// TestWeeklyVolume verifies the trailing 7-day window: bucket keys, oldest
// day first, and exclusion of sessions outside the window.
func TestWeeklyVolume(t *testing.T) {
	sessions := []models.Session{
		sessionOn(daysAgo(0), time.Hour, "Squat", "Bench Press"),
		sessionOn(daysAgo(6), time.Hour, "Deadlift"),
		sessionOn(daysAgo(7), time.Hour, "Row"), // outside the window
	}
	got := WeeklyVolume(sessions, testNow)

	if len(got) != 7 {
		t.Fatalf("len = %d, want 7", len(got))
	}
	if got[0].Day != daysAgo(6).Format("Mon") || got[0].Count != 1 {
		t.Errorf("oldest bucket = %+v, want %s/1", got[0], daysAgo(6).Format("Mon"))
	}
	if got[6].Day != testNow.Format("Mon") || got[6].Count != 2 {
		t.Errorf("newest bucket = %+v, want %s/2", got[6], testNow.Format("Mon"))
	}
	var total int
	for _, b := range got {
		total += b.Count
	}
	if total != 3 {
		t.Errorf("total = %d, want 3 (outside-window exercise must not count)", total)
	}
}

// TestTopExercises verifies count ordering, the limit, that incomplete
// exercises are ignored, and that ties keep first-encountered order.
func TestTopExercises(t *testing.T) {
	skipped := sessionOn(daysAgo(3), time.Hour, "Curl")
	skipped.Exercises[0].Completed = false

	sessions := []models.Session{
		sessionOn(daysAgo(0), time.Hour, "Squat", "Bench Press"),
		sessionOn(daysAgo(1), time.Hour, "Squat", "Deadlift"),
		sessionOn(daysAgo(2), time.Hour, "Squat"),
		skipped,
	}

	got := TopExercises(sessions, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Name != "Squat" || got[0].Count != 3 {
		t.Errorf("top = %+v, want Squat/3", got[0])
	}
	// Bench Press and Deadlift tie at 1; Bench Press was seen first.
	if got[1].Name != "Bench Press" || got[1].Count != 1 {
		t.Errorf("second = %+v, want Bench Press/1", got[1])
	}
}

type stubHistory struct {
	sessions []models.Session
}

func (s *stubHistory) ListCompletedSessions(context.Context, int) ([]models.Session, error) {
	return s.sessions, nil
}

// TestDashboard verifies the full aggregate assembled from one history.
func TestDashboard(t *testing.T) {
	a := NewAnalyzer(&stubHistory{sessions: []models.Session{
		sessionOn(daysAgo(0), 30*time.Minute, "Squat"),
		sessionOn(daysAgo(1), 90*time.Minute, "Squat", "Bench Press"),
	}})

	d, err := a.Dashboard(context.Background(), 1, testNow)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.MonthlyCount != 2 {
		t.Errorf("MonthlyCount = %d, want 2", d.MonthlyCount)
	}
	if d.StreakDays != 2 {
		t.Errorf("StreakDays = %d, want 2", d.StreakDays)
	}
	if d.AvgDurationMin != 60 {
		t.Errorf("AvgDurationMin = %f, want 60", d.AvgDurationMin)
	}
	if d.CompletionRate != 1 {
		t.Errorf("CompletionRate = %f, want 1", d.CompletionRate)
	}
	if len(d.WeeklyVolume) != 7 {
		t.Errorf("WeeklyVolume len = %d, want 7", len(d.WeeklyVolume))
	}
	if len(d.TopExercises) != 2 || d.TopExercises[0].Name != "Squat" {
		t.Errorf("TopExercises = %+v", d.TopExercises)
	}
}
