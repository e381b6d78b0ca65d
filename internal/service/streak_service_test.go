package service

import (
	"context"
	"testing"
	"time"

	"mkwa_fitness_backend/internal/model"
)

func TestGetStreakWithoutActivity(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := NewStreakService(repos.streak, newTestBus(), db)
	member := newTestMember(t, db, "alice", model.TierStandard)

	streak, err := svc.GetStreak(context.Background(), member.ID)
	if err != nil {
		t.Fatalf("GetStreak: %v", err)
	}
	if streak.CurrentStreak != 0 || streak.LongestStreak != 0 {
		t.Errorf("streak = %d/%d, want 0/0", streak.CurrentStreak, streak.LongestStreak)
	}
}

func TestSweep(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := NewStreakService(repos.streak, newTestBus(), db)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	threeDaysAgo := now.AddDate(0, 0, -3)

	fresh := newTestMember(t, db, "fresh", model.TierStandard)
	stale := newTestMember(t, db, "stale", model.TierStandard)
	db.Create(&model.Streak{MemberID: fresh.ID, CurrentStreak: 4, LongestStreak: 4, LastActivityDate: yesterday})
	db.Create(&model.Streak{MemberID: stale.ID, CurrentStreak: 9, LongestStreak: 9, LastActivityDate: threeDaysAgo})

	affected, err := svc.Sweep(ctx, now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if affected != 1 {
		t.Errorf("affected = %d, want 1", affected)
	}

	// 昨天还有活动的今天仍可续，不归零
	streak, _ := svc.GetStreak(ctx, fresh.ID)
	if streak.CurrentStreak != 4 {
		t.Errorf("fresh streak = %d, want 4", streak.CurrentStreak)
	}

	// 归零保留历史最长值
	streak, _ = svc.GetStreak(ctx, stale.ID)
	if streak.CurrentStreak != 0 || streak.LongestStreak != 9 {
		t.Errorf("stale streak = %d/%d, want 0/9", streak.CurrentStreak, streak.LongestStreak)
	}

	// 幂等
	affected, _ = svc.Sweep(ctx, now)
	if affected != 0 {
		t.Errorf("second sweep affected = %d, want 0", affected)
	}
}
