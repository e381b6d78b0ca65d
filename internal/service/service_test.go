package service

import (
	"testing"
	"time"

	"mkwa_fitness_backend/internal/event"
	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/repository"
	"mkwa_fitness_backend/pkg/database"
	"mkwa_fitness_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testDB 每个测试独立的内存库。连接数限制为 1，
// 共享内存库在多连接下才是同一个实例，写入也由此串行化。
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

type testRepoSet struct {
	member      *repository.MemberRepository
	ledger      *repository.LedgerRepository
	activity    *repository.ActivityRepository
	streak      *repository.StreakRepository
	achievement *repository.AchievementRepository
	goal        *repository.GoalRepository
	leaderboard *repository.LeaderboardRepository
}

func testRepos(db *gorm.DB) *testRepoSet {
	return &testRepoSet{
		member:      repository.NewMemberRepository(db),
		ledger:      repository.NewLedgerRepository(db),
		activity:    repository.NewActivityRepository(db),
		streak:      repository.NewStreakRepository(db),
		achievement: repository.NewAchievementRepository(db),
		goal:        repository.NewGoalRepository(db),
		leaderboard: repository.NewLeaderboardRepository(db),
	}
}

func newTestMember(t *testing.T, db *gorm.DB, name string, tier model.MembershipTier) *model.Member {
	t.Helper()
	member := &model.Member{
		Name:           name,
		Email:          name + "@example.com",
		MembershipTier: tier,
		Status:         model.MemberActive,
		JoinDate:       time.Now(),
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	return member
}

func newTestBus() *event.Bus {
	return event.NewBus(nil)
}
