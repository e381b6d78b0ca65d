package service

import (
	"context"
	"errors"
	"testing"

	"mkwa_fitness_backend/internal/config"
	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/util"

	"gorm.io/gorm"
)

// 规则里把时段乘数归一，测试不依赖运行时刻
func flatRules() config.RulesConfig {
	rules := config.DefaultRules()
	rules.OffPeakMultiplier = 1
	return rules
}

func newActivityService(db *gorm.DB, repos *testRepoSet) *ActivityService {
	bus := newTestBus()
	streakSvc := NewStreakService(repos.streak, bus, db)
	achievementSvc := NewAchievementService(repos.achievement, repos.member, repos.ledger, repos.activity, repos.streak, repos.goal, bus, db)
	goalSvc := NewGoalService(repos.goal, repos.member, repos.ledger, bus, db)
	return NewActivityService(
		NewPointsCalculator(flatRules()),
		repos.member, repos.activity, repos.ledger,
		streakSvc, achievementSvc, goalSvc, repos.goal,
		bus, db,
	)
}

func TestLogActivity(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newActivityService(db, repos)
	member := newTestMember(t, db, "alice", model.TierStandard)
	ctx := context.Background()

	seedAchievement(t, db, "First Visit", 25,
		model.RequirementSet{model.Threshold(model.FactTotalActivities, model.OpGTE, 1)})

	goal, err := svc.GoalSvc.CreateGoal(ctx, GoalRequest{Title: "Point Drive", TargetValue: 1000})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if err := svc.GoalSvc.Join(ctx, goal.ID, member.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	res, err := svc.LogActivity(ctx, member.ID, LogActivityRequest{ActivityType: model.ActivityGymVisit, Duration: 45})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}

	if res.PointsAwarded != 10 {
		t.Errorf("points awarded = %d, want 10", res.PointsAwarded)
	}
	if res.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1", res.CurrentStreak)
	}
	if res.ActivityID == 0 || res.TransactionID == 0 {
		t.Errorf("missing ids: activity=%d transaction=%d", res.ActivityID, res.TransactionID)
	}
	if len(res.NewAchievements) != 1 || res.NewAchievements[0].Name != "First Visit" {
		t.Errorf("new achievements = %v, want First Visit", res.NewAchievements)
	}
	if len(res.GoalUpdates) != 1 || res.GoalUpdates[0].Contribution != 10 {
		t.Errorf("goal updates = %v, want one contribution of 10", res.GoalUpdates)
	}

	// 余额 = 活动 10 + 成就 25
	var reloaded model.Member
	db.First(&reloaded, member.ID)
	if reloaded.PointsBalance != 35 {
		t.Errorf("balance = %d, want 35", reloaded.PointsBalance)
	}

	var activityCount int64
	db.Model(&model.Activity{}).Where("member_id = ?", member.ID).Count(&activityCount)
	if activityCount != 1 {
		t.Errorf("activity rows = %d, want 1", activityCount)
	}

	var reloadedGoal model.CommunityGoal
	db.First(&reloadedGoal, goal.ID)
	if reloadedGoal.CurrentValue != 10 {
		t.Errorf("goal current value = %d, want 10", reloadedGoal.CurrentValue)
	}
}

func TestLogActivitySameDayKeepsStreak(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newActivityService(db, repos)
	member := newTestMember(t, db, "bob", model.TierStandard)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := svc.LogActivity(ctx, member.ID, LogActivityRequest{ActivityType: model.ActivityGymVisit})
		if err != nil {
			t.Fatalf("LogActivity #%d: %v", i+1, err)
		}
		if res.CurrentStreak != 1 {
			t.Errorf("streak after log #%d = %d, want 1", i+1, res.CurrentStreak)
		}
	}

	// 同日两次都记积分，连续天数不变
	var reloaded model.Member
	db.First(&reloaded, member.ID)
	if reloaded.PointsBalance != 20 {
		t.Errorf("balance = %d, want 20", reloaded.PointsBalance)
	}
}

func TestLogActivityRejectsInvalidInput(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newActivityService(db, repos)
	member := newTestMember(t, db, "carol", model.TierStandard)
	ctx := context.Background()

	if _, err := svc.LogActivity(ctx, member.ID, LogActivityRequest{ActivityType: "swimming"}); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("unknown type err = %v, want ErrValidation", err)
	}
	if _, err := svc.LogActivity(ctx, member.ID, LogActivityRequest{ActivityType: model.ActivityGymVisit, Duration: -5}); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("negative duration err = %v, want ErrValidation", err)
	}
	if _, err := svc.LogActivity(ctx, 9999, LogActivityRequest{ActivityType: model.ActivityGymVisit}); !errors.Is(err, util.ErrMemberNotFound) {
		t.Fatalf("unknown member err = %v, want ErrMemberNotFound", err)
	}

	// 成就、转介这类类型只能由系统内部产生
	if _, err := svc.LogActivity(ctx, member.ID, LogActivityRequest{ActivityType: model.ActivityAchievement}); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("internal type err = %v, want ErrValidation", err)
	}
}

func TestLogActivityInactiveMember(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newActivityService(db, repos)
	member := newTestMember(t, db, "dave", model.TierStandard)
	ctx := context.Background()

	db.Model(&model.Member{}).Where("id = ?", member.ID).Update("status", model.MemberSuspended)

	if _, err := svc.LogActivity(ctx, member.ID, LogActivityRequest{ActivityType: model.ActivityGymVisit}); !errors.Is(err, util.ErrMemberNotActive) {
		t.Fatalf("err = %v, want ErrMemberNotActive", err)
	}

	var activityCount int64
	db.Model(&model.Activity{}).Where("member_id = ?", member.ID).Count(&activityCount)
	if activityCount != 0 {
		t.Errorf("activity rows = %d, want 0", activityCount)
	}
}
