package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mkwa_fitness_backend/internal/config"
	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/repository"
	"mkwa_fitness_backend/internal/util"

	"gorm.io/gorm"
)

func newLeaderboardService(db *gorm.DB, repos *testRepoSet) *LeaderboardService {
	// redis 为空时投影每次直查库
	return NewLeaderboardService(repos.leaderboard, nil, config.LeaderboardConfig{
		Mode:                      "lazy",
		StalenessToleranceSeconds: 60,
		PageSize:                  50,
	})
}

func TestRankRows(t *testing.T) {
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	rows := []repository.ScoreRow{
		{MemberID: 3, Name: "carol", Score: 50, FirstAt: base.Add(time.Hour)},
		{MemberID: 1, Name: "alice", Score: 80, FirstAt: base},
		{MemberID: 4, Name: "dave", Score: 50, FirstAt: base},
		{MemberID: 2, Name: "bob", Score: 50, FirstAt: base},
	}

	entries := rankRows(rows)

	// 平分时最早得分者在前，再按会员 ID 决出全序
	wantOrder := []uint{1, 2, 4, 3}
	for i, want := range wantOrder {
		if entries[i].MemberID != want {
			t.Errorf("entry %d member = %d, want %d", i, entries[i].MemberID, want)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("entry %d rank = %d, want %d", i, entries[i].Rank, i+1)
		}
	}
}

func TestRankRowsEmpty(t *testing.T) {
	entries := rankRows(nil)
	if len(entries) != 0 {
		t.Errorf("entries = %v, want empty", entries)
	}
}

func TestPeriodStart(t *testing.T) {
	// 2026-08-26 是周三
	now := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		period model.LeaderboardPeriod
		want   time.Time
	}{
		{model.PeriodWeekly, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
		{model.PeriodMonthly, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		{model.PeriodAllTime, time.Time{}},
	}
	for _, tt := range tests {
		if got := periodStart(tt.period, now); !got.Equal(tt.want) {
			t.Errorf("periodStart(%s) = %v, want %v", tt.period, got, tt.want)
		}
	}

	// 周日归到上周一
	sunday := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	if got := periodStart(model.PeriodWeekly, sunday); !got.Equal(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("periodStart(weekly, sunday) = %v", got)
	}
}

func TestGetLeaderboard(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newLeaderboardService(db, repos)
	ledgerSvc := NewLedgerService(repos.member, repos.ledger, newTestBus(), db)
	ctx := context.Background()

	alice := newTestMember(t, db, "alice", model.TierStandard)
	bob := newTestMember(t, db, "bob", model.TierStandard)
	carol := newTestMember(t, db, "carol", model.TierStandard)

	if _, err := ledgerSvc.Adjust(ctx, alice.ID, 100, "seed", 0); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if _, err := ledgerSvc.Adjust(ctx, bob.ID, 200, "seed", 0); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if _, err := ledgerSvc.Adjust(ctx, carol.ID, 50, "seed", 0); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	// 兑换会拉低净积分
	if _, err := ledgerSvc.Redeem(ctx, bob.ID, 150, "towel"); err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	lb, err := svc.CreateLeaderboard(ctx, LeaderboardRequest{Name: "Weekly Points", Type: "points", Period: "all_time"})
	if err != nil {
		t.Fatalf("CreateLeaderboard: %v", err)
	}

	view, err := svc.GetLeaderboard(ctx, lb.ID, 1, 10)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if view.Total != 3 {
		t.Fatalf("total = %d, want 3", view.Total)
	}

	// bob 和 carol 同分 50，bob 的首笔流水更早，排在前面
	want := []struct {
		memberID uint
		score    int64
	}{
		{alice.ID, 100},
		{bob.ID, 50},
		{carol.ID, 50},
	}
	for i, w := range want {
		if view.Entries[i].MemberID != w.memberID || view.Entries[i].Score != w.score {
			t.Errorf("entry %d = member %d score %d, want member %d score %d",
				i, view.Entries[i].MemberID, view.Entries[i].Score, w.memberID, w.score)
		}
	}
}

func TestGetLeaderboardPagination(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newLeaderboardService(db, repos)
	ledgerSvc := NewLedgerService(repos.member, repos.ledger, newTestBus(), db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		m := newTestMember(t, db, "member"+string(rune('a'+i)), model.TierStandard)
		if _, err := ledgerSvc.Adjust(ctx, m.ID, int64(100-i*10), "seed", 0); err != nil {
			t.Fatalf("Adjust: %v", err)
		}
	}

	lb, err := svc.CreateLeaderboard(ctx, LeaderboardRequest{Name: "Points", Type: "points", Period: "all_time"})
	if err != nil {
		t.Fatalf("CreateLeaderboard: %v", err)
	}

	view, err := svc.GetLeaderboard(ctx, lb.ID, 2, 2)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if view.Total != 5 || len(view.Entries) != 2 {
		t.Fatalf("total = %d entries = %d, want 5 / 2", view.Total, len(view.Entries))
	}
	if view.Entries[0].Rank != 3 || view.Entries[1].Rank != 4 {
		t.Errorf("ranks = %d, %d, want 3, 4", view.Entries[0].Rank, view.Entries[1].Rank)
	}

	// 越界页返回空集而不是错误
	view, err = svc.GetLeaderboard(ctx, lb.ID, 10, 2)
	if err != nil {
		t.Fatalf("GetLeaderboard out of range: %v", err)
	}
	if len(view.Entries) != 0 {
		t.Errorf("out of range entries = %d, want 0", len(view.Entries))
	}
}

func TestLeaderboardExcludesInactiveMembers(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newLeaderboardService(db, repos)
	ledgerSvc := NewLedgerService(repos.member, repos.ledger, newTestBus(), db)
	ctx := context.Background()

	active := newTestMember(t, db, "active", model.TierStandard)
	suspended := newTestMember(t, db, "suspended", model.TierStandard)
	if _, err := ledgerSvc.Adjust(ctx, active.ID, 10, "seed", 0); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if _, err := ledgerSvc.Adjust(ctx, suspended.ID, 500, "seed", 0); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	db.Model(&model.Member{}).Where("id = ?", suspended.ID).Update("status", model.MemberSuspended)

	lb, _ := svc.CreateLeaderboard(ctx, LeaderboardRequest{Name: "Points", Type: "points", Period: "all_time"})
	view, err := svc.GetLeaderboard(ctx, lb.ID, 1, 10)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if view.Total != 1 || view.Entries[0].MemberID != active.ID {
		t.Errorf("view = %+v, want only active member", view.Entries)
	}
}

func TestLeaderboardValidation(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newLeaderboardService(db, repos)
	ctx := context.Background()

	if _, err := svc.CreateLeaderboard(ctx, LeaderboardRequest{Name: "x", Type: "calories", Period: "weekly"}); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("bad type err = %v, want ErrValidation", err)
	}
	if _, err := svc.CreateLeaderboard(ctx, LeaderboardRequest{Name: "x", Type: "points", Period: "daily"}); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("bad period err = %v, want ErrValidation", err)
	}
	if _, err := svc.GetLeaderboard(ctx, 9999, 1, 10); !errors.Is(err, util.ErrLeaderboardNotFound) {
		t.Fatalf("missing id err = %v, want ErrLeaderboardNotFound", err)
	}
}
