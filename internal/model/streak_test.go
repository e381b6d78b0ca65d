package model

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 14, 30, 0, 0, time.UTC)
}

func TestStreakAdvance(t *testing.T) {
	t.Run("first activity starts streak", func(t *testing.T) {
		s := &Streak{MemberID: 1}
		if got := s.Advance(day(1)); got != StreakStarted {
			t.Fatalf("outcome = %v, want StreakStarted", got)
		}
		if s.CurrentStreak != 1 || s.LongestStreak != 1 {
			t.Errorf("streak = %d/%d, want 1/1", s.CurrentStreak, s.LongestStreak)
		}
	})

	t.Run("same day is idempotent", func(t *testing.T) {
		s := &Streak{MemberID: 1}
		s.Advance(day(1))
		if got := s.Advance(day(1).Add(3 * time.Hour)); got != StreakNoop {
			t.Fatalf("outcome = %v, want StreakNoop", got)
		}
		if s.CurrentStreak != 1 {
			t.Errorf("current = %d, want 1", s.CurrentStreak)
		}
	})

	t.Run("next day extends", func(t *testing.T) {
		s := &Streak{MemberID: 1}
		s.Advance(day(1))
		if got := s.Advance(day(2)); got != StreakExtended {
			t.Fatalf("outcome = %v, want StreakExtended", got)
		}
		if s.CurrentStreak != 2 || s.LongestStreak != 2 {
			t.Errorf("streak = %d/%d, want 2/2", s.CurrentStreak, s.LongestStreak)
		}
	})

	t.Run("gap resets to one", func(t *testing.T) {
		s := &Streak{MemberID: 1}
		s.Advance(day(1))
		s.Advance(day(2))
		s.Advance(day(3))
		if got := s.Advance(day(6)); got != StreakStarted {
			t.Fatalf("outcome = %v, want StreakStarted", got)
		}
		if s.CurrentStreak != 1 {
			t.Errorf("current = %d, want 1", s.CurrentStreak)
		}
		if s.LongestStreak != 3 {
			t.Errorf("longest = %d, want 3", s.LongestStreak)
		}
	})

	t.Run("backdated activity is rejected", func(t *testing.T) {
		s := &Streak{MemberID: 1}
		s.Advance(day(5))
		if got := s.Advance(day(3)); got != StreakStale {
			t.Fatalf("outcome = %v, want StreakStale", got)
		}
		if s.CurrentStreak != 1 {
			t.Errorf("stale advance must not mutate, current = %d", s.CurrentStreak)
		}
	})

	t.Run("seven consecutive days", func(t *testing.T) {
		s := &Streak{MemberID: 1}
		for d := 1; d <= 7; d++ {
			s.Advance(day(d))
		}
		if s.CurrentStreak != 7 || s.LongestStreak != 7 {
			t.Errorf("streak = %d/%d, want 7/7", s.CurrentStreak, s.LongestStreak)
		}
	})

	t.Run("longest survives reset and regrowth", func(t *testing.T) {
		s := &Streak{MemberID: 1}
		for d := 1; d <= 5; d++ {
			s.Advance(day(d))
		}
		s.Advance(day(10))
		s.Advance(day(11))
		if s.CurrentStreak != 2 {
			t.Errorf("current = %d, want 2", s.CurrentStreak)
		}
		if s.LongestStreak != 5 {
			t.Errorf("longest = %d, want 5", s.LongestStreak)
		}
	})

	t.Run("invariant longest gte current", func(t *testing.T) {
		s := &Streak{MemberID: 1}
		days := []int{1, 2, 2, 3, 7, 8, 9, 9, 10, 20, 21}
		for _, d := range days {
			s.Advance(day(d))
			if s.LongestStreak < s.CurrentStreak {
				t.Fatalf("longest %d < current %d after day %d", s.LongestStreak, s.CurrentStreak, d)
			}
		}
	})
}
