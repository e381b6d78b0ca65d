package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/util"

	"gorm.io/gorm"
)

func newAchievementService(db *gorm.DB, repos *testRepoSet) *AchievementService {
	return NewAchievementService(repos.achievement, repos.member, repos.ledger, repos.activity, repos.streak, repos.goal, newTestBus(), db)
}

func seedAchievement(t *testing.T, db *gorm.DB, name string, points int64, reqs model.RequirementSet) *model.Achievement {
	t.Helper()
	a := &model.Achievement{
		Name:         name,
		PointsValue:  points,
		Requirements: reqs,
		Type:         model.AchievementSpecial,
		IsActive:     true,
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed achievement: %v", err)
	}
	return a
}

func TestCheckAndAward(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newAchievementService(db, repos)
	member := newTestMember(t, db, "alice", model.TierStandard)
	ctx := context.Background()

	seedAchievement(t, db, "First Visit", 25,
		model.RequirementSet{model.Threshold(model.FactTotalActivities, model.OpGTE, 1)})
	seedAchievement(t, db, "Point Collector", 150,
		model.RequirementSet{model.Threshold(model.FactTotalPoints, model.OpGTE, 1000)})

	// 条件未满足时不发放
	awarded, err := svc.CheckAndAward(ctx, member.ID)
	if err != nil {
		t.Fatalf("CheckAndAward: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("awarded %d achievements, want 0", len(awarded))
	}

	if err := db.Create(&model.Activity{MemberID: member.ID, ActivityType: model.ActivityGymVisit}).Error; err != nil {
		t.Fatalf("seed activity: %v", err)
	}

	awarded, err = svc.CheckAndAward(ctx, member.ID)
	if err != nil {
		t.Fatalf("CheckAndAward: %v", err)
	}
	if len(awarded) != 1 || awarded[0].Name != "First Visit" {
		t.Fatalf("awarded = %+v, want First Visit only", awarded)
	}

	// 成就积分与解锁同事务落库
	var member2 model.Member
	db.First(&member2, member.ID)
	if member2.PointsBalance != 25 {
		t.Errorf("balance = %d, want 25", member2.PointsBalance)
	}
	var txnCount int64
	db.Model(&model.PointsTransaction{}).
		Where("member_id = ? AND activity_type = ?", member.ID, model.ActivityAchievement).
		Count(&txnCount)
	if txnCount != 1 {
		t.Errorf("achievement transactions = %d, want 1", txnCount)
	}
}

func TestCheckAndAwardIsIdempotent(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newAchievementService(db, repos)
	member := newTestMember(t, db, "bob", model.TierStandard)
	ctx := context.Background()

	seedAchievement(t, db, "First Visit", 25,
		model.RequirementSet{model.Threshold(model.FactTotalActivities, model.OpGTE, 1)})
	db.Create(&model.Activity{MemberID: member.ID, ActivityType: model.ActivityGymVisit})

	for i := 0; i < 3; i++ {
		if _, err := svc.CheckAndAward(ctx, member.ID); err != nil {
			t.Fatalf("CheckAndAward #%d: %v", i, err)
		}
	}

	var unlockCount int64
	db.Model(&model.MemberAchievement{}).Where("member_id = ?", member.ID).Count(&unlockCount)
	if unlockCount != 1 {
		t.Errorf("unlock rows = %d, want exactly 1", unlockCount)
	}
	var member2 model.Member
	db.First(&member2, member.ID)
	if member2.PointsBalance != 25 {
		t.Errorf("balance = %d, want 25 (single award)", member2.PointsBalance)
	}
}

func TestCheckAndAwardConcurrent(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newAchievementService(db, repos)
	member := newTestMember(t, db, "carol", model.TierStandard)

	seedAchievement(t, db, "First Visit", 25,
		model.RequirementSet{model.Threshold(model.FactTotalActivities, model.OpGTE, 1)})
	db.Create(&model.Activity{MemberID: member.ID, ActivityType: model.ActivityGymVisit})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// 并发冲突允许，但不允许重复发放
			svc.CheckAndAward(context.Background(), member.ID)
		}()
	}
	wg.Wait()

	var unlockCount int64
	db.Model(&model.MemberAchievement{}).Where("member_id = ?", member.ID).Count(&unlockCount)
	if unlockCount != 1 {
		t.Errorf("unlock rows = %d, want exactly 1", unlockCount)
	}
	var txnCount int64
	db.Model(&model.PointsTransaction{}).
		Where("member_id = ? AND activity_type = ?", member.ID, model.ActivityAchievement).
		Count(&txnCount)
	if txnCount != 1 {
		t.Errorf("achievement transactions = %d, want exactly 1", txnCount)
	}
}

func TestManualAward(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newAchievementService(db, repos)
	member := newTestMember(t, db, "dave", model.TierStandard)
	ctx := context.Background()

	a := seedAchievement(t, db, "Founders Club", 200,
		model.RequirementSet{model.Threshold(model.FactTotalPoints, model.OpGTE, 99999)})

	if err := svc.Award(ctx, member.ID, a.ID); err != nil {
		t.Fatalf("Award: %v", err)
	}
	if err := svc.Award(ctx, member.ID, a.ID); !errors.Is(err, util.ErrAlreadyAwarded) {
		t.Fatalf("second Award err = %v, want ErrAlreadyAwarded", err)
	}
	if err := svc.Award(ctx, member.ID, 9999); !errors.Is(err, util.ErrAchievementNotFound) {
		t.Fatalf("unknown achievement err = %v, want ErrAchievementNotFound", err)
	}
}

func TestAchievementValidation(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newAchievementService(db, repos)
	ctx := context.Background()

	tests := []struct {
		name string
		req  AchievementRequest
	}{
		{"empty requirements", AchievementRequest{Name: "x", Requirements: model.RequirementSet{}}},
		{"negative points", AchievementRequest{Name: "x", PointsValue: -1,
			Requirements: model.RequirementSet{model.Threshold(model.FactTotalPoints, model.OpGTE, 1)}}},
		{"unknown field", AchievementRequest{Name: "x",
			Requirements: model.RequirementSet{model.Threshold("karma", model.OpGTE, 1)}}},
		{"unknown op", AchievementRequest{Name: "x",
			Requirements: model.RequirementSet{model.Threshold(model.FactTotalPoints, "ne", 1)}}},
		{"activity count without activity", AchievementRequest{Name: "x",
			Requirements: model.RequirementSet{model.Threshold(model.FactActivityCount, model.OpGTE, 1)}}},
		{"composite without children", AchievementRequest{Name: "x",
			Requirements: model.RequirementSet{{Kind: model.KindAll}}}},
		{"unknown type", AchievementRequest{Name: "x", Type: "hourly",
			Requirements: model.RequirementSet{model.Threshold(model.FactTotalPoints, model.OpGTE, 1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateAchievement(ctx, tt.req); !errors.Is(err, util.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRequirementsRoundTrip(t *testing.T) {
	db := testDB(t)
	repos := testRepos(db)
	svc := newAchievementService(db, repos)
	ctx := context.Background()

	reqs := model.RequirementSet{
		model.All(
			model.Threshold(model.FactTotalPoints, model.OpGTE, 500),
			model.ActivityThreshold(model.ActivityClassAttendance, model.OpGTE, 5),
		),
	}
	created, err := svc.CreateAchievement(ctx, AchievementRequest{Name: "Combo", Requirements: reqs})
	if err != nil {
		t.Fatalf("CreateAchievement: %v", err)
	}

	loaded, err := svc.GetAchievement(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAchievement: %v", err)
	}
	if len(loaded.Requirements) != 1 || loaded.Requirements[0].Kind != model.KindAll {
		t.Fatalf("requirements lost structure: %+v", loaded.Requirements)
	}
	if len(loaded.Requirements[0].Children) != 2 {
		t.Fatalf("children = %d, want 2", len(loaded.Requirements[0].Children))
	}
}
